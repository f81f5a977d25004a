package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmorales/jiratools/internal/analysis"
)

// The fallbacks are deterministic renderings of the same data the generator
// would see. They carry the report when no provider is configured or a call
// fails, so publishing never blocks on an API.

func fallbackSprintSummary(result analysis.SprintResult) string {
	completed, late := splitByOutcome(result.Tasks)
	incomplete := 0
	for _, task := range result.Tasks {
		if !isDoneStatus(task.CurrentStatus) {
			incomplete++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Sprint %s Achievement Summary**\n\n", result.SprintName)

	if len(completed) == 0 {
		fmt.Fprintf(&sb, "The team achieved a %.1f%% completion rate with no tasks completed within the sprint timeline.", result.CompletionRate)
		return sb.String()
	}

	fmt.Fprintf(&sb, "The team completed %d tasks, achieving a %.1f%% completion rate.",
		len(completed), result.CompletionRate)
	if len(late) > 0 {
		fmt.Fprintf(&sb, " An additional %d tasks were completed after the sprint deadline.", len(late))
	}
	if incomplete > 0 {
		fmt.Fprintf(&sb, " %d tasks remain incomplete.", incomplete)
	}
	return sb.String()
}

func fallbackMultiSprintSummary(result analysis.MultiSprintResult) string {
	var sb strings.Builder
	sb.WriteString("**Multi-Sprint Performance Metrics**\n\n")
	fmt.Fprintf(&sb, "Across %d sprints: average completion rate of %.1f%% (%d/%d total tasks completed within sprint timelines). ",
		len(result.SprintResults), result.AverageCompletionRate, result.TotalCompleted, result.TotalTasks)

	avg := result.AverageCompletionRate
	switch {
	case avg >= 80:
		fmt.Fprintf(&sb, "Team performance is %.1f percentage points above the 80%% target benchmark.", avg-80)
	case avg >= 70:
		fmt.Fprintf(&sb, "Team performance is %.1f percentage points below the 80%% target benchmark.", 80-avg)
	default:
		fmt.Fprintf(&sb, "Team performance is %.1f percentage points below target, indicating systematic capacity or planning issues.", 80-avg)
	}

	if len(result.SprintResults) > 0 {
		rates := make([]float64, 0, len(result.SprintResults))
		for _, sprint := range result.SprintResults {
			rates = append(rates, sprint.CompletionRate)
		}
		sort.Float64s(rates)
		lowest, highest := rates[0], rates[len(rates)-1]
		variation := highest - lowest

		fmt.Fprintf(&sb, "\n\nPerformance consistency: %.1f%% variance (range: %.1f%% to %.1f%%). ",
			variation, lowest, highest)
		switch {
		case variation < 15:
			sb.WriteString("Variance under 15% indicates consistent delivery patterns.")
		case variation < 30:
			fmt.Fprintf(&sb, "Variance of %.1f%% suggests moderate inconsistency in sprint execution.", variation)
		default:
			fmt.Fprintf(&sb, "Variance of %.1f%% indicates significant inconsistency requiring process improvements.", variation)
		}
	}
	return sb.String()
}

func fallbackHygieneInsights(report analysis.HygieneReport) string {
	var sb strings.Builder
	sb.WriteString("**Backlog Health Summary**\n\n")
	fmt.Fprintf(&sb, "Your backlog hygiene score is %.1f%% across %d issues. ",
		report.HygieneScore, report.TotalIssues)

	switch {
	case report.HygieneScore >= 80:
		sb.WriteString("This indicates excellent backlog health with good practices in place.")
	case report.HygieneScore >= 60:
		sb.WriteString("This indicates decent backlog health with room for improvement.")
	default:
		sb.WriteString("This indicates significant hygiene issues requiring attention.")
	}

	var actions []string
	if report.Completeness.HasDescriptionPct < 80 {
		actions = append(actions, "Improve issue descriptions for better clarity")
	}
	if report.Epics.AssignmentPct < 70 {
		actions = append(actions, fmt.Sprintf("Assign %d orphaned issues to epics", report.Epics.Orphaned))
	}
	if report.Age.AverageAgeDays > 90 {
		actions = append(actions, "Review and clean up old issues to reduce backlog staleness")
	}

	if len(actions) > 0 {
		sb.WriteString("\n\n**Priority Actions:**\n")
		for i, action := range actions {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&sb, "%d. %s\n", i+1, action)
		}
	}
	return sb.String()
}

func fallbackHygieneRecommendations(report analysis.HygieneReport) string {
	missingEstimates := report.TotalIssues - report.Completeness.Counts.HasEstimate
	orphaned := report.Epics.Orphaned
	avgAge := report.Age.AverageAgeDays

	var sb strings.Builder
	fmt.Fprintf(&sb, "The backlog contains %d issues with a %.1f%% hygiene score. ",
		report.TotalIssues, report.HygieneScore)

	switch {
	case report.HygieneScore >= 80:
		sb.WriteString("The backlog is well-maintained with good completeness and organization.")
	case report.HygieneScore >= 60:
		sb.WriteString("The backlog shows moderate hygiene with some areas needing attention.")
	default:
		fmt.Fprintf(&sb, "The backlog needs improvement with %d issues missing story points, %d orphaned issues, and an average age of %.1f days.",
			missingEstimates, orphaned, avgAge)
	}

	action1 := "Schedule weekly 15-minute backlog grooming sessions"
	action2 := "Create Definition of Ready checklist for new tickets"
	if missingEstimates > 50 {
		action1 = "Make story point estimation mandatory before sprint planning"
	}
	if orphaned > 20 {
		action2 = "Assign all new tickets to epics during creation"
	}
	if avgAge > 120 {
		action1 = "Implement monthly backlog cleanup sessions"
	}

	fmt.Fprintf(&sb, " Action items: 1) %s, 2) %s.", action1, action2)
	return sb.String()
}
