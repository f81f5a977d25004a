package analysis

import (
	"sort"
	"time"

	"github.com/pmorales/jiratools/internal/models"
)

// DefaultStaleThresholdDays is the age at which a backlog issue counts as
// stale when the caller gives no threshold.
const DefaultStaleThresholdDays = 90

// StaleIssue is a backlog issue at or past the staleness threshold.
type StaleIssue struct {
	Key         string    `json:"key"`
	Summary     string    `json:"summary"`
	AgeDays     int       `json:"age_days"`
	Created     time.Time `json:"created_date"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	EpicKey     *string   `json:"epic_key,omitempty"`
	EpicSummary string    `json:"epic_summary,omitempty"`
}

// StaleReport lists stale issues oldest first.
type StaleReport struct {
	StaleIssues    []StaleIssue `json:"stale_issues"`
	StaleCount     int          `json:"stale_count"`
	TotalIssues    int          `json:"total_issues"`
	StalenessPct   float64      `json:"staleness_percentage"`
	ThresholdDays  int          `json:"days_threshold"`
	OldestIssueAge int          `json:"oldest_issue_age"`
}

// IncompleteIssue is an issue missing at least one required field.
type IncompleteIssue struct {
	Key           string    `json:"key"`
	Summary       string    `json:"summary"`
	MissingFields []string  `json:"missing_fields"`
	MissingCount  int       `json:"missing_count"`
	IssueType     string    `json:"issue_type"`
	Created       time.Time `json:"created_date"`
	AgeDays       int       `json:"age_days"`
}

// MissingFieldCount tallies how often a field is missing across the
// incomplete set.
type MissingFieldCount struct {
	Field      string  `json:"field"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// IncompleteReport lists incomplete issues, most incomplete first.
type IncompleteReport struct {
	IncompleteIssues  []IncompleteIssue   `json:"incomplete_issues"`
	IncompleteCount   int                 `json:"incomplete_count"`
	TotalIssues       int                 `json:"total_issues"`
	CompletionPct     float64             `json:"completion_percentage"`
	MostCommonMissing []MissingFieldCount `json:"most_common_missing_fields"`
}

// FindStaleIssues filters issues whose age meets the threshold and sorts
// them by age descending. The sort is stable so ties keep their original
// relative order and output stays deterministic.
func FindStaleIssues(issues []models.Issue, thresholdDays int, now time.Time) StaleReport {
	report := StaleReport{
		StaleIssues:   []StaleIssue{},
		TotalIssues:   len(issues),
		ThresholdDays: thresholdDays,
	}
	if len(issues) == 0 {
		return report
	}

	for _, issue := range issues {
		age := AgeDays(issue, now)
		if age < thresholdDays {
			continue
		}
		stale := StaleIssue{
			Key:         issue.Key,
			Summary:     issue.Summary,
			AgeDays:     age,
			Created:     issue.Created,
			Status:      issue.Status,
			Priority:    issue.PriorityName(),
			EpicSummary: issue.EpicSummary,
		}
		if key, ok := ResolveEpicKey(issue); ok {
			stale.EpicKey = &key
		}
		report.StaleIssues = append(report.StaleIssues, stale)
	}

	sort.SliceStable(report.StaleIssues, func(i, j int) bool {
		return report.StaleIssues[i].AgeDays > report.StaleIssues[j].AgeDays
	})

	report.StaleCount = len(report.StaleIssues)
	report.StalenessPct = round1(percentage(report.StaleCount, len(issues)))
	if report.StaleCount > 0 {
		report.OldestIssueAge = report.StaleIssues[0].AgeDays
	}
	return report
}

// FindIncompleteIssues filters issues missing at least one required field
// and sorts them by missing-field count descending, stable on ties.
func FindIncompleteIssues(issues []models.Issue, now time.Time) IncompleteReport {
	report := IncompleteReport{
		IncompleteIssues:  []IncompleteIssue{},
		TotalIssues:       len(issues),
		MostCommonMissing: []MissingFieldCount{},
	}
	if len(issues) == 0 {
		report.CompletionPct = 100
		return report
	}

	for _, issue := range issues {
		missing := missingFields(issue)
		if len(missing) == 0 {
			continue
		}
		report.IncompleteIssues = append(report.IncompleteIssues, IncompleteIssue{
			Key:           issue.Key,
			Summary:       issue.Summary,
			MissingFields: missing,
			MissingCount:  len(missing),
			IssueType:     issue.Type,
			Created:       issue.Created,
			AgeDays:       AgeDays(issue, now),
		})
	}

	sort.SliceStable(report.IncompleteIssues, func(i, j int) bool {
		return report.IncompleteIssues[i].MissingCount > report.IncompleteIssues[j].MissingCount
	})

	report.IncompleteCount = len(report.IncompleteIssues)
	report.CompletionPct = round1(percentage(len(issues)-report.IncompleteCount, len(issues)))
	report.MostCommonMissing = mostCommonMissingFields(report.IncompleteIssues)
	return report
}

func missingFields(issue models.Issue) []string {
	var missing []string
	if !HasMeaningfulDescription(issue) {
		missing = append(missing, "description")
	}
	if !HasEpicAssignment(issue) {
		missing = append(missing, "epic")
	}
	if issue.Priority == nil {
		missing = append(missing, "priority")
	}
	if _, ok := issue.Estimate(); !ok && requiresEstimate(issue.Type) {
		missing = append(missing, "story_points")
	}
	return missing
}

func mostCommonMissingFields(incomplete []IncompleteIssue) []MissingFieldCount {
	if len(incomplete) == 0 {
		return []MissingFieldCount{}
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, issue := range incomplete {
		for _, field := range issue.MissingFields {
			if _, seen := counts[field]; !seen {
				order = append(order, field)
			}
			counts[field]++
		}
	}

	result := make([]MissingFieldCount, 0, len(order))
	for _, field := range order {
		result = append(result, MissingFieldCount{
			Field:      field,
			Count:      counts[field],
			Percentage: round1(percentage(counts[field], len(incomplete))),
		})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Count > result[j].Count })
	return result
}
