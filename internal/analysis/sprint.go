package analysis

import (
	"time"

	"github.com/pmorales/jiratools/internal/models"
)

// TaskDetail is the per-issue view of a sprint analysis. CurrentStatus and
// CompletedWithinSprint can legitimately disagree: an issue that reached
// "Done" after sprint close is a sprint miss but a global completion.
type TaskDetail struct {
	Key                   string     `json:"key"`
	Summary               string     `json:"summary"`
	CurrentStatus         string     `json:"current_status"`
	CompletionDate        *time.Time `json:"completion_date,omitempty"`
	CompletedWithinSprint bool       `json:"completed_within_sprint"`
}

// SprintResult is the completion analysis of a single sprint.
type SprintResult struct {
	SprintID              int                `json:"sprint_id"`
	SprintName            string             `json:"sprint_name"`
	State                 models.SprintState `json:"sprint_state,omitempty"`
	StartDate             *time.Time         `json:"start_date,omitempty"`
	EndDate               *time.Time         `json:"end_date,omitempty"`
	TotalTasks            int                `json:"total_tasks"`
	CompletedWithinSprint int                `json:"completed_within_sprint"`
	CompletionRate        float64            `json:"completion_rate"`
	Tasks                 []TaskDetail       `json:"tasks"`
}

// MultiSprintResult aggregates several sprint analyses. The average
// completion rate is pooled (sum of completed over sum of totals), which
// weights larger sprints more heavily; best and worst are the unweighted
// extremes of the individual rates. The two are different statistics and
// both are reported.
type MultiSprintResult struct {
	AnalysisType          string         `json:"analysis_type"`
	TargetMonth           time.Month     `json:"target_month,omitempty"`
	SprintCount           int            `json:"sprint_count,omitempty"`
	SprintResults         []SprintResult `json:"sprint_results"`
	TotalTasks            int            `json:"total_tasks"`
	TotalCompleted        int            `json:"total_completed"`
	AverageCompletionRate float64        `json:"average_completion_rate"`
	BestSprintRate        float64        `json:"best_sprint_rate"`
	WorstSprintRate       float64        `json:"worst_sprint_rate"`
}

// SprintLookup is the result of a by-name sprint analysis. A lookup miss is
// a branchable result rather than an error because callers routinely need
// to handle it without unwinding.
type SprintLookup struct {
	SprintName string        `json:"sprint_name"`
	Found      bool          `json:"found"`
	Result     *SprintResult `json:"result,omitempty"`
}

// ActiveSprintSummary is the current progress of one in-flight sprint,
// judged on current status rather than changelog replay.
type ActiveSprintSummary struct {
	SprintID       int        `json:"id"`
	Name           string     `json:"name"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	TotalIssues    int        `json:"total_issues"`
	DoneIssues     int        `json:"done_issues"`
	CompletionRate float64    `json:"current_completion_rate"`
}

// DoneDate returns the instant an issue first transitioned into a terminal
// done status, scanning the changelog in order. Current status is
// irrelevant here: no done transition in the history means the issue never
// completed, no matter what it looks like now.
func DoneDate(issue models.Issue) *time.Time {
	for _, change := range issue.Changelog {
		if change.Field != "status" {
			continue
		}
		for _, done := range models.DoneStatuses {
			if change.To == done {
				t := change.Timestamp
				return &t
			}
		}
	}
	return nil
}

// AnalyzeSprint replays each issue's status history against the sprint's
// end instant. An issue counts as completed within the sprint iff its done
// transition exists and happened at or before sprint end. A sprint with no
// issues or no end date reports a 0.0 rate, never a division error.
func AnalyzeSprint(sprint models.Sprint, issues []models.Issue) SprintResult {
	result := SprintResult{
		SprintID:   sprint.ID,
		SprintName: sprint.Name,
		State:      sprint.State,
		StartDate:  sprint.Start,
		EndDate:    sprint.End,
		Tasks:      []TaskDetail{},
	}
	if len(issues) == 0 {
		return result
	}

	for _, issue := range issues {
		doneDate := DoneDate(issue)

		completedWithin := false
		if doneDate != nil && sprint.End != nil && !doneDate.After(*sprint.End) {
			completedWithin = true
			result.CompletedWithinSprint++
		}

		result.Tasks = append(result.Tasks, TaskDetail{
			Key:                   issue.Key,
			Summary:               issue.Summary,
			CurrentStatus:         issue.Status,
			CompletionDate:        doneDate,
			CompletedWithinSprint: completedWithin,
		})
	}

	result.TotalTasks = len(issues)
	result.CompletionRate = CompletionPercentage(result.CompletedWithinSprint, result.TotalTasks)
	return result
}

// AggregateSprints pools per-sprint results into one overall figure.
func AggregateSprints(results []SprintResult, analysisType string) MultiSprintResult {
	aggregate := MultiSprintResult{
		AnalysisType:  analysisType,
		SprintResults: results,
	}
	if len(results) == 0 {
		aggregate.SprintResults = []SprintResult{}
		return aggregate
	}

	best, worst := results[0].CompletionRate, results[0].CompletionRate
	for _, r := range results {
		aggregate.TotalTasks += r.TotalTasks
		aggregate.TotalCompleted += r.CompletedWithinSprint
		if r.CompletionRate > best {
			best = r.CompletionRate
		}
		if r.CompletionRate < worst {
			worst = r.CompletionRate
		}
	}

	aggregate.AverageCompletionRate = CompletionPercentage(aggregate.TotalCompleted, aggregate.TotalTasks)
	aggregate.BestSprintRate = best
	aggregate.WorstSprintRate = worst
	return aggregate
}

// FilterSprintsByMonth keeps sprints whose end date falls in the target
// calendar month. Sprints without an end date cannot be bucketed and are
// skipped.
func FilterSprintsByMonth(sprints []models.Sprint, month time.Month) []models.Sprint {
	filtered := make([]models.Sprint, 0, len(sprints))
	for _, s := range sprints {
		if s.End != nil && s.End.Month() == month {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// UnweightedAverageRate is the plain mean of the individual sprint rates,
// used by the quick recent-performance check. It deliberately differs from
// the pooled figure reported by AggregateSprints.
func UnweightedAverageRate(results []SprintResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.CompletionRate
	}
	return round1(sum / float64(len(results)))
}

// SummarizeActiveSprint reports an active sprint's progress by current
// status: done right now, not done within any window.
func SummarizeActiveSprint(sprint models.Sprint, issues []models.Issue) ActiveSprintSummary {
	done := 0
	for _, issue := range issues {
		if isDoneStatus(issue.Status) {
			done++
		}
	}
	return ActiveSprintSummary{
		SprintID:       sprint.ID,
		Name:           sprint.Name,
		StartDate:      sprint.Start,
		EndDate:        sprint.End,
		TotalIssues:    len(issues),
		DoneIssues:     done,
		CompletionRate: CompletionPercentage(done, len(issues)),
	}
}

func isDoneStatus(status string) bool {
	for _, done := range models.DoneStatuses {
		if status == done {
			return true
		}
	}
	return false
}

// CompletionPercentage is completed/total*100, 0 when total is 0.
func CompletionPercentage(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
