package analysis

import (
	"fmt"
	"time"

	"github.com/pmorales/jiratools/internal/models"
)

// Hygiene score weights. These are fixed constants of the metric's design,
// not tunables: changing them changes what every published score means.
const (
	weightCompleteness = 0.40
	weightAge          = 0.30
	weightEpic         = 0.20
	weightPriority     = 0.10

	// ageBaselineDays is where the age penalty reaches zero: an average
	// age of 90 days or more contributes nothing to the score.
	ageBaselineDays = 90.0
)

// Recommendation thresholds.
const (
	descriptionThresholdPct = 80.0
	epicThresholdPct        = 70.0
	ageThresholdDays        = 60.0
	estimateThresholdPct    = 60.0
)

// HygieneReport is the full backlog-hygiene analysis.
type HygieneReport struct {
	TotalIssues     int               `json:"total_issues"`
	HygieneScore    float64           `json:"hygiene_score"`
	Completeness    CompletenessStats `json:"completeness"`
	Age             AgeStats          `json:"age_distribution"`
	Priority        PriorityStats     `json:"priority_distribution"`
	Epics           EpicStats         `json:"epic_assignment"`
	Status          StatusStats       `json:"status_distribution"`
	Recommendations []string          `json:"recommendations"`
	AnalyzedAt      time.Time         `json:"analysis_timestamp"`
}

// HygieneSummary is the quick equal-weight variant of the hygiene check,
// useful when only the headline numbers are needed.
type HygieneSummary struct {
	HygieneScore      float64 `json:"hygiene_score"`
	TotalIssues       int     `json:"total_issues"`
	WithDescriptions  int     `json:"issues_with_descriptions"`
	WithEpics         int     `json:"issues_with_epics"`
	AverageAgeDays    float64 `json:"average_age_days"`
	DescriptionPct    float64 `json:"description_percentage"`
	EpicAssignmentPct float64 `json:"epic_assignment_percentage"`
	Message           string  `json:"message"`
}

// AnalyzeBacklog runs the complete hygiene analysis over a backlog at the
// given instant. An empty backlog yields a zero report, not an error: the
// score is defined as 0 when there is nothing to score.
func AnalyzeBacklog(issues []models.Issue, now time.Time) HygieneReport {
	report := HygieneReport{
		TotalIssues:     len(issues),
		Recommendations: []string{},
		AnalyzedAt:      now,
	}
	if len(issues) == 0 {
		report.Completeness = AnalyzeCompleteness(nil)
		report.Age = AnalyzeAgeDistribution(nil, now)
		report.Priority = AnalyzePriorityDistribution(nil)
		report.Epics = AnalyzeEpicAssignment(nil)
		report.Status = AnalyzeStatusDistribution(nil)
		return report
	}

	report.Completeness = AnalyzeCompleteness(issues)
	report.Age = AnalyzeAgeDistribution(issues, now)
	report.Priority = AnalyzePriorityDistribution(issues)
	report.Epics = AnalyzeEpicAssignment(issues)
	report.Status = AnalyzeStatusDistribution(issues)
	report.HygieneScore = HygieneScore(report.Completeness, report.Age, report.Priority, report.Epics)
	report.Recommendations = Recommendations(report.Completeness, report.Age, report.Priority, report.Epics)
	return report
}

// HygieneScore combines the four sub-scores into the weighted 0-100 metric,
// rounded to one decimal place. The age term is a penalty floored at zero:
// an ancient backlog contributes 0 there, never a negative number.
func HygieneScore(completeness CompletenessStats, age AgeStats, priority PriorityStats, epics EpicStats) float64 {
	completenessScore := completeness.FullyCompletePct
	ageScore := agePenaltyScore(age.AverageAgeDays)
	epicScore := epics.AssignmentPct

	priorityScore := 0.0
	if priority.TotalIssues > 0 {
		priorityScore = float64(priority.TotalIssues-priority.WithoutPriority) / float64(priority.TotalIssues) * 100
	}

	score := completenessScore*weightCompleteness +
		ageScore*weightAge +
		epicScore*weightEpic +
		priorityScore*weightPriority
	return round1(score)
}

func agePenaltyScore(averageAgeDays float64) float64 {
	score := 100 - (averageAgeDays/ageBaselineDays)*100
	if score < 0 {
		return 0
	}
	return score
}

// Summarize computes the quick hygiene summary: the unweighted mean of the
// description, epic, and age sub-scores.
func Summarize(issues []models.Issue, now time.Time) HygieneSummary {
	if len(issues) == 0 {
		return HygieneSummary{Message: "No backlog issues found"}
	}

	withDescriptions, withEpics := 0, 0
	totalAge := 0
	for _, issue := range issues {
		if HasMeaningfulDescription(issue) {
			withDescriptions++
		}
		if HasEpicAssignment(issue) {
			withEpics++
		}
		totalAge += AgeDays(issue, now)
	}

	averageAge := float64(totalAge) / float64(len(issues))
	descriptionScore := percentage(withDescriptions, len(issues))
	epicScore := percentage(withEpics, len(issues))
	ageScore := agePenaltyScore(averageAge)
	score := round1((descriptionScore + epicScore + ageScore) / 3)

	return HygieneSummary{
		HygieneScore:      score,
		TotalIssues:       len(issues),
		WithDescriptions:  withDescriptions,
		WithEpics:         withEpics,
		AverageAgeDays:    round1(averageAge),
		DescriptionPct:    round1(descriptionScore),
		EpicAssignmentPct: round1(epicScore),
		Message:           fmt.Sprintf("Backlog hygiene score: %.1f%% (%d issues analyzed)", score, len(issues)),
	}
}

// Recommendations turns aggregate metrics into the prioritized action list.
// Emission order is fixed and part of the contract: downstream display and
// published reports depend on it, so entries are never re-sorted.
func Recommendations(completeness CompletenessStats, age AgeStats, priority PriorityStats, epics EpicStats) []string {
	recommendations := []string{}

	if completeness.HasDescriptionPct < descriptionThresholdPct {
		recommendations = append(recommendations,
			"Add meaningful descriptions to issues missing descriptions")
	}
	if epics.AssignmentPct < epicThresholdPct {
		recommendations = append(recommendations,
			fmt.Sprintf("Assign %d orphaned issues to appropriate epics", epics.Orphaned))
	}
	if age.AverageAgeDays > ageThresholdDays {
		recommendations = append(recommendations,
			fmt.Sprintf("Review and prioritize old issues (average age: %.1f days)", age.AverageAgeDays))
	}
	if priority.WithoutPriority > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Set priorities for %d issues without priority", priority.WithoutPriority))
	}
	if completeness.HasEstimatePct < estimateThresholdPct {
		recommendations = append(recommendations,
			"Estimate story points for unestimated stories and tasks")
	}

	return recommendations
}
