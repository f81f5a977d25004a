package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/pmorales/jiratools/internal/models"
)

// CompletenessCounts tallies how many issues carry each scored field.
type CompletenessCounts struct {
	HasDescription int `json:"has_description"`
	HasEpic        int `json:"has_epic"`
	HasPriority    int `json:"has_priority"`
	HasEstimate    int `json:"has_estimate"`
	FullyComplete  int `json:"fully_complete"`
}

// CompletenessStats is the population-level completeness distribution.
// Percentages are over the whole issue set and all zero when it is empty.
type CompletenessStats struct {
	Counts            CompletenessCounts `json:"counts"`
	HasDescriptionPct float64            `json:"has_description_percentage"`
	HasEpicPct        float64            `json:"has_epic_percentage"`
	HasPriorityPct    float64            `json:"has_priority_percentage"`
	HasEstimatePct    float64            `json:"has_estimate_percentage"`
	FullyCompletePct  float64            `json:"fully_complete_percentage"`
	TotalIssues       int                `json:"total_issues"`
}

// AgeStats describes the age distribution of a backlog at a given instant.
type AgeStats struct {
	Distribution    map[AgeBucket]int `json:"distribution"`
	AverageAgeDays  float64           `json:"average_age_days"`
	MedianAgeDays   int               `json:"median_age_days"`
	OldestIssueDays int               `json:"oldest_issue_days"`
	NewestIssueDays int               `json:"newest_issue_days"`
}

// PriorityStats counts issues per distinct priority label, with unset
// priority reported under the literal category "None".
type PriorityStats struct {
	Distribution    map[string]int `json:"distribution"`
	TotalIssues     int            `json:"total_issues"`
	WithoutPriority int            `json:"issues_without_priority"`
	MostCommon      string         `json:"most_common_priority"`
	MostCommonCount int            `json:"most_common_priority_count"`
}

// EpicCount pairs an epic key with the number of issues assigned to it.
type EpicCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// EpicStats describes epic-assignment coverage over the issue set.
type EpicStats struct {
	WithEpics     int         `json:"issues_with_epics"`
	WithoutEpics  int         `json:"issues_without_epics"`
	AssignmentPct float64     `json:"epic_assignment_percentage"`
	UniqueEpics   int         `json:"unique_epics"`
	TopEpics      []EpicCount `json:"epic_distribution"`
	Orphaned      int         `json:"orphaned_issues"`
}

// StatusStats counts issues per current status label.
type StatusStats struct {
	Distribution    map[string]int `json:"distribution"`
	TotalIssues     int            `json:"total_issues"`
	UniqueStatuses  int            `json:"unique_statuses"`
	MostCommon      string         `json:"most_common_status"`
	MostCommonCount int            `json:"most_common_status_count"`
}

// AnalyzeCompleteness builds the completeness distribution for a backlog.
func AnalyzeCompleteness(issues []models.Issue) CompletenessStats {
	var counts CompletenessCounts
	for _, issue := range issues {
		c := EvaluateCompleteness(issue)
		if c.HasDescription {
			counts.HasDescription++
		}
		if c.HasEpic {
			counts.HasEpic++
		}
		if c.HasPriority {
			counts.HasPriority++
		}
		if c.HasEstimate {
			counts.HasEstimate++
		}
		if c.FullyComplete {
			counts.FullyComplete++
		}
	}

	total := len(issues)
	return CompletenessStats{
		Counts:            counts,
		HasDescriptionPct: percentage(counts.HasDescription, total),
		HasEpicPct:        percentage(counts.HasEpic, total),
		HasPriorityPct:    percentage(counts.HasPriority, total),
		HasEstimatePct:    percentage(counts.HasEstimate, total),
		FullyCompletePct:  percentage(counts.FullyComplete, total),
		TotalIssues:       total,
	}
}

// AnalyzeAgeDistribution buckets issue ages at the given instant and
// derives the mean and median age. The median of an even-length set is the
// upper-middle element (index n/2 of the ascending sort); downstream
// consumers depend on that exact figure, so it is deliberately not the
// average of the two middle values.
func AnalyzeAgeDistribution(issues []models.Issue, now time.Time) AgeStats {
	distribution := make(map[AgeBucket]int, len(AgeBuckets))
	for _, b := range AgeBuckets {
		distribution[b] = 0
	}

	ages := make([]int, 0, len(issues))
	for _, issue := range issues {
		days := AgeDays(issue, now)
		ages = append(ages, days)
		distribution[BucketFor(days)]++
	}

	stats := AgeStats{Distribution: distribution}
	if len(ages) == 0 {
		return stats
	}

	sum := 0
	oldest, newest := ages[0], ages[0]
	for _, a := range ages {
		sum += a
		if a > oldest {
			oldest = a
		}
		if a < newest {
			newest = a
		}
	}

	sorted := append([]int(nil), ages...)
	sort.Ints(sorted)

	stats.AverageAgeDays = round1(float64(sum) / float64(len(ages)))
	stats.MedianAgeDays = sorted[len(sorted)/2]
	stats.OldestIssueDays = oldest
	stats.NewestIssueDays = newest
	return stats
}

// AnalyzePriorityDistribution counts issues per priority label.
func AnalyzePriorityDistribution(issues []models.Issue) PriorityStats {
	distribution := make(map[string]int)
	order := make([]string, 0)
	for _, issue := range issues {
		name := issue.PriorityName()
		if _, seen := distribution[name]; !seen {
			order = append(order, name)
		}
		distribution[name]++
	}

	stats := PriorityStats{
		Distribution:    distribution,
		TotalIssues:     len(issues),
		WithoutPriority: distribution["None"],
		MostCommon:      "None",
	}
	// First-encountered order breaks ties, keeping output deterministic.
	for _, name := range order {
		if distribution[name] > stats.MostCommonCount {
			stats.MostCommon = name
			stats.MostCommonCount = distribution[name]
		}
	}
	return stats
}

// AnalyzeEpicAssignment measures epic coverage and the top-10 most loaded
// epics, ties broken by first-encountered order.
func AnalyzeEpicAssignment(issues []models.Issue) EpicStats {
	counts := make(map[string]int)
	order := make([]string, 0)
	withEpics := 0

	for _, issue := range issues {
		key, ok := ResolveEpicKey(issue)
		if !ok {
			continue
		}
		withEpics++
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	top := make([]EpicCount, 0, len(order))
	for _, key := range order {
		top = append(top, EpicCount{Key: key, Count: counts[key]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > 10 {
		top = top[:10]
	}

	return EpicStats{
		WithEpics:     withEpics,
		WithoutEpics:  len(issues) - withEpics,
		AssignmentPct: percentage(withEpics, len(issues)),
		UniqueEpics:   len(counts),
		TopEpics:      top,
		Orphaned:      len(issues) - withEpics,
	}
}

// AnalyzeStatusDistribution counts issues per current status.
func AnalyzeStatusDistribution(issues []models.Issue) StatusStats {
	distribution := make(map[string]int)
	order := make([]string, 0)
	for _, issue := range issues {
		if _, seen := distribution[issue.Status]; !seen {
			order = append(order, issue.Status)
		}
		distribution[issue.Status]++
	}

	stats := StatusStats{
		Distribution:   distribution,
		TotalIssues:    len(issues),
		UniqueStatuses: len(distribution),
		MostCommon:     "None",
	}
	for _, name := range order {
		if distribution[name] > stats.MostCommonCount {
			stats.MostCommon = name
			stats.MostCommonCount = distribution[name]
		}
	}
	return stats
}

// percentage is completed/total*100, defined as 0 for an empty population.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
