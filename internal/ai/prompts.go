package ai

import (
	"fmt"
	"strings"

	"github.com/pmorales/jiratools/internal/analysis"
	"github.com/pmorales/jiratools/internal/models"
)

// System prompts steer the generator towards plain, jargon-free reporting.
const (
	sprintSystemPrompt = `Write a direct paragraph summary of sprint achievements. Bundle tasks into main accomplishments. Pay attention to service names in ticket titles (e.g., "UserService", "PaymentService") and include them in your summary to show which systems were worked on. Use simple, clear language. Avoid corporate jargon, flowery language, and phrases like "robust," "comprehensive," "leverage," or "outcomes."`

	multiSprintSystemPrompt = `Write a straightforward summary of what the team built across multiple sprints. Group similar work together and include service names from ticket titles to show which systems were worked on. For highlights, mention consistent delivery, successful features, or smooth processes. For lowlights, mention recurring delays, incomplete items, or blockers. Use plain English. Avoid business buzzwords, unnecessary adjectives, and corporate speak.`

	hygieneInsightsSystemPrompt = `You are a senior product manager analyzing backlog health. Based on the hygiene metrics provided, write actionable insights and recommendations. Be specific about what needs attention and provide practical next steps. Focus on the most impactful improvements first. Use clear, professional language without jargon.`

	hygieneRecommendationsSystemPrompt = `You are a technical project manager. Based on the backlog hygiene data, write one summary paragraph about the team's backlog health, then provide exactly 2 short-term action items the team can implement to improve their backlog management. Be concise and actionable.`
)

func isDoneStatus(status string) bool {
	for _, done := range models.DoneStatuses {
		if status == done {
			return true
		}
	}
	return false
}

func splitByOutcome(tasks []analysis.TaskDetail) (completed, late []analysis.TaskDetail) {
	for _, task := range tasks {
		switch {
		case task.CompletedWithinSprint:
			completed = append(completed, task)
		case isDoneStatus(task.CurrentStatus):
			late = append(late, task)
		}
	}
	return completed, late
}

func sprintAchievementPrompt(result analysis.SprintResult) string {
	completed, late := splitByOutcome(result.Tasks)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze this sprint and summarize what the team achieved:\n\n")
	fmt.Fprintf(&sb, "Sprint: %s\n", result.SprintName)
	fmt.Fprintf(&sb, "Completion Rate: %.1f%%\n\n", result.CompletionRate)

	sb.WriteString("COMPLETED TASKS:\n")
	for _, task := range completed {
		fmt.Fprintf(&sb, "- %s\n", task.Summary)
	}
	if len(late) > 0 {
		sb.WriteString("\nCOMPLETED AFTER SPRINT:\n")
		for _, task := range late {
			fmt.Fprintf(&sb, "- %s\n", task.Summary)
		}
	}

	sb.WriteString("\nWrite a single paragraph summary of what the team achieved this sprint. Group related tasks and describe the main achievements. Be direct and focus only on what was accomplished.\n")
	return sb.String()
}

func multiSprintPrompt(result analysis.MultiSprintResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze this multi-sprint performance and provide strategic insights:\n\n")
	fmt.Fprintf(&sb, "Analysis Period: %s\n", result.AnalysisType)
	fmt.Fprintf(&sb, "Total Sprints: %d\n", len(result.SprintResults))
	fmt.Fprintf(&sb, "Overall Completion Rate: %.1f%%\n", result.AverageCompletionRate)
	fmt.Fprintf(&sb, "Total Tasks Analyzed: %d\n", result.TotalTasks)
	fmt.Fprintf(&sb, "Tasks Completed On Time: %d\n\n", result.TotalCompleted)

	sb.WriteString("SPRINT PERFORMANCE:\n")
	for _, sprint := range result.SprintResults {
		fmt.Fprintf(&sb, "- %s: %.1f%% (%d/%d tasks)\n",
			sprint.SprintName, sprint.CompletionRate, sprint.CompletedWithinSprint, sprint.TotalTasks)
	}

	// A sample of completed work, capped to keep the prompt small: at most
	// three tasks per sprint, ten overall.
	sb.WriteString("\nSAMPLE COMPLETED TASKS:\n")
	shown := 0
	for _, sprint := range result.SprintResults {
		if shown >= 10 {
			break
		}
		perSprint := 0
		for _, task := range sprint.Tasks {
			if shown >= 10 || perSprint >= 3 {
				break
			}
			if !task.CompletedWithinSprint {
				continue
			}
			fmt.Fprintf(&sb, "- %s\n", task.Summary)
			shown++
			perSprint++
		}
	}

	sb.WriteString(`
Write 5 short sections:
1. **Built:** What was built across these sprints - group similar work and include service names from ticket titles
2. **Fixed:** What was fixed or improved
3. **Highlights:** What went well across these sprints
4. **Lowlights:** What challenges or issues occurred
5. **Patterns:** Any patterns you notice

Keep it simple and direct.
`)
	return sb.String()
}

func hygienePrompt(report analysis.HygieneReport, closing string) string {
	var sb strings.Builder
	sb.WriteString("BACKLOG HYGIENE ANALYSIS:\n\n")
	fmt.Fprintf(&sb, "Overall Score: %.1f%% (%d total issues)\n\n", report.HygieneScore, report.TotalIssues)

	sb.WriteString("COMPLETENESS METRICS:\n")
	fmt.Fprintf(&sb, "- Issues with descriptions: %.1f%%\n", report.Completeness.HasDescriptionPct)
	fmt.Fprintf(&sb, "- Issues with epics: %.1f%%\n", report.Completeness.HasEpicPct)
	fmt.Fprintf(&sb, "- Issues with priorities: %.1f%%\n", report.Completeness.HasPriorityPct)
	fmt.Fprintf(&sb, "- Issues with story points: %.1f%%\n", report.Completeness.HasEstimatePct)
	fmt.Fprintf(&sb, "- Fully complete issues: %.1f%%\n\n", report.Completeness.FullyCompletePct)

	sb.WriteString("AGE DISTRIBUTION:\n")
	fmt.Fprintf(&sb, "- Average age: %.1f days\n", report.Age.AverageAgeDays)
	for _, bucket := range analysis.AgeBuckets {
		fmt.Fprintf(&sb, "- %s: %d issues\n", bucket, report.Age.Distribution[bucket])
	}

	sb.WriteString("\nEPIC ASSIGNMENT:\n")
	fmt.Fprintf(&sb, "- Issues with epics: %d (%.1f%%)\n", report.Epics.WithEpics, report.Epics.AssignmentPct)
	fmt.Fprintf(&sb, "- Orphaned issues: %d\n", report.Epics.Orphaned)
	fmt.Fprintf(&sb, "- Unique epics: %d\n", report.Epics.UniqueEpics)

	sb.WriteString("\nPRIORITY DISTRIBUTION:\n")
	fmt.Fprintf(&sb, "- Issues without priority: %d\n\n", report.Priority.WithoutPriority)

	sb.WriteString(closing)
	return sb.String()
}

const hygieneInsightsClosing = `Based on this data, provide:
1. Key insights about backlog health
2. Top 3 priority actions to improve hygiene score
3. Specific recommendations for the most critical issues
4. Long-term suggestions for maintaining good backlog health

Be specific and actionable in your recommendations.
`

const hygieneRecommendationsClosing = `Write one paragraph summarizing the backlog health using these specific numbers. Then add "Action items:" followed by exactly 2 short-term improvements the team should implement. Focus on team practices and processes, not individual ticket fixes.
`
