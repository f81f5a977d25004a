package models

import "time"

// KnownEstimateFields are the story-point custom-field IDs checked when
// looking up an issue's estimate. Field naming varies across Jira
// installations, so the first field with a value wins.
var KnownEstimateFields = []string{"customfield_10016", "customfield_10002", "storyPoints"}

// KnownEpicLinkFields are the custom-field IDs that may carry an epic link,
// checked after the parent and direct epic relations.
var KnownEpicLinkFields = []string{"customfield_10011", "customfield_10014"}

// DoneStatuses are the terminal status labels that mark an issue completed.
var DoneStatuses = []string{"Done", "Closed", "Resolved"}

// ParentRef is an issue's parent relation. The parent counts as an epic
// assignment only when its type is literally "Epic".
type ParentRef struct {
	Key  string `json:"key"`
	Type string `json:"type"`
}

// StatusChange is a single field-change event from an issue's changelog,
// ordered oldest first as returned by the tracker.
type StatusChange struct {
	Timestamp time.Time `json:"timestamp"`
	Field     string    `json:"field"`
	From      string    `json:"from"`
	To        string    `json:"to"`
}

// Issue is a tracker work item. Created is always present; every other
// field may be absent, and absence is a scorable condition rather than an
// error, so optional fields are pointers or maps instead of zero-value
// sentinels.
type Issue struct {
	Key         string     `json:"key"`
	Summary     string     `json:"summary"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    *string    `json:"priority,omitempty"`
	Type        string     `json:"issue_type"`
	Created     time.Time  `json:"created"`
	Parent      *ParentRef `json:"parent,omitempty"`

	// EpicLink is the direct epic relation, when the installation exposes one.
	EpicLink *string `json:"epic_link,omitempty"`

	// EpicFields holds epic-link custom fields keyed by field ID.
	EpicFields map[string]string `json:"epic_fields,omitempty"`

	// EstimateFields holds story-point custom fields keyed by field ID.
	EstimateFields map[string]float64 `json:"estimate_fields,omitempty"`

	// EpicSummary is the resolved epic's display name, filled in by the
	// fetch layer. "Epic not found" when the link exists but the epic
	// itself cannot be dereferenced; empty when the issue has no epic.
	EpicSummary string `json:"epic_summary,omitempty"`

	Changelog []StatusChange `json:"changelog,omitempty"`
}

// Estimate returns the issue's story-point estimate, trying the known
// custom-field aliases in order. The second return is false when no alias
// carries a value.
func (i Issue) Estimate() (float64, bool) {
	for _, field := range KnownEstimateFields {
		if v, ok := i.EstimateFields[field]; ok {
			return v, true
		}
	}
	return 0, false
}

// PriorityName returns the priority label, or "None" when unset. Only
// display and distribution code should use this; completeness checks look
// at the pointer directly.
func (i Issue) PriorityName() string {
	if i.Priority == nil {
		return "None"
	}
	return *i.Priority
}
