package analysis

import (
	"strings"

	"github.com/pmorales/jiratools/internal/models"
)

// minDescriptionLength guards against placeholder descriptions. Anything at
// or below this trimmed length does not count as a meaningful description.
const minDescriptionLength = 10

// Completeness records which of the scored fields an issue carries.
// FullyComplete is the conjunction of the four, except that the estimate
// requirement only applies to Story and Task issues.
type Completeness struct {
	HasDescription bool `json:"has_description"`
	HasEpic        bool `json:"has_epic"`
	HasPriority    bool `json:"has_priority"`
	HasEstimate    bool `json:"has_estimate"`
	FullyComplete  bool `json:"fully_complete"`
}

// EvaluateCompleteness derives the per-issue completeness record.
func EvaluateCompleteness(issue models.Issue) Completeness {
	c := Completeness{
		HasDescription: HasMeaningfulDescription(issue),
		HasEpic:        HasEpicAssignment(issue),
		HasPriority:    issue.Priority != nil,
	}
	_, c.HasEstimate = issue.Estimate()

	estimateRequired := requiresEstimate(issue.Type)
	c.FullyComplete = c.HasDescription && c.HasEpic && c.HasPriority &&
		(c.HasEstimate || !estimateRequired)
	return c
}

// HasMeaningfulDescription reports whether the issue has a description
// longer than the placeholder guard after trimming.
func HasMeaningfulDescription(issue models.Issue) bool {
	if issue.Description == nil {
		return false
	}
	return len(strings.TrimSpace(*issue.Description)) > minDescriptionLength
}

// requiresEstimate reports whether the issue type is expected to carry a
// story-point estimate for full completeness.
func requiresEstimate(issueType string) bool {
	return issueType == "Story" || issueType == "Task"
}

// epicStrategy is one way of finding an issue's epic. Strategies run in
// order and the first hit wins, so installation-specific field quirks stay
// in this one list instead of branching at call sites.
type epicStrategy struct {
	name    string
	resolve func(models.Issue) (string, bool)
}

var epicStrategies = []epicStrategy{
	{"parent", func(i models.Issue) (string, bool) {
		if i.Parent != nil && i.Parent.Type == "Epic" {
			return i.Parent.Key, true
		}
		return "", false
	}},
	{"epic-link", func(i models.Issue) (string, bool) {
		if i.EpicLink != nil && *i.EpicLink != "" {
			return *i.EpicLink, true
		}
		return "", false
	}},
	{"customfield_10011", epicFieldLookup("customfield_10011")},
	{"customfield_10014", epicFieldLookup("customfield_10014")},
}

func epicFieldLookup(field string) func(models.Issue) (string, bool) {
	return func(i models.Issue) (string, bool) {
		if key, ok := i.EpicFields[field]; ok && key != "" {
			return key, true
		}
		return "", false
	}
}

// ResolveEpicKey returns the issue's epic key, trying each resolution
// strategy in priority order. Assignment intent is what's measured: a key
// that later fails to dereference still counts as an assignment.
func ResolveEpicKey(issue models.Issue) (string, bool) {
	for _, s := range epicStrategies {
		if key, ok := s.resolve(issue); ok {
			return key, true
		}
	}
	return "", false
}

// HasEpicAssignment reports whether any strategy resolves an epic key.
func HasEpicAssignment(issue models.Issue) bool {
	_, ok := ResolveEpicKey(issue)
	return ok
}
