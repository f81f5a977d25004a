package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmorales/jiratools/internal/analysis"
	"github.com/pmorales/jiratools/internal/jira"
	"github.com/pmorales/jiratools/internal/models"
	"github.com/pmorales/jiratools/internal/output"
	"github.com/pmorales/jiratools/internal/store"
)

var (
	sprintName   string
	sprintMonth  int
	sprintLast   int
	sprintFormat string
	sprintSave   bool
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Analyze sprint completion",
	Long: `Analyze sprint completion rates. An issue counts as completed within
a sprint only when its status history shows a transition to Done, Closed, or
Resolved at or before the sprint's end date.

With no flags, shows live progress of the active sprints. Use --name for a
single sprint, --month for all closed sprints ending in a calendar month, or
--last for the most recently closed N sprints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sprintRun(cmd.Context())
	},
}

func init() {
	sprintCmd.Flags().StringVar(&sprintName, "name", "", "Analyze a single sprint by name (case-insensitive)")
	sprintCmd.Flags().IntVar(&sprintMonth, "month", 0, "Analyze closed sprints ending in this month (1-12)")
	sprintCmd.Flags().IntVar(&sprintLast, "last", 0, "Analyze the last N closed sprints")
	sprintCmd.Flags().StringVar(&sprintFormat, "format", "table", "Output format: table, json, csv")
	sprintCmd.Flags().BoolVar(&sprintSave, "save", false, "Record this run in the local snapshot history")
	rootCmd.AddCommand(sprintCmd)
}

func sprintRun(ctx context.Context) error {
	client, err := jiraClient()
	if err != nil {
		return err
	}

	switch {
	case sprintName != "":
		return sprintByNameRun(ctx, client)
	case sprintMonth != 0:
		if sprintMonth < 1 || sprintMonth > 12 {
			return fmt.Errorf("--month must be 1-12, got %d", sprintMonth)
		}
		return multiSprintRun(ctx, client, "monthly")
	case sprintLast != 0:
		if sprintLast < 1 {
			return fmt.Errorf("--last must be positive, got %d", sprintLast)
		}
		return multiSprintRun(ctx, client, "last_n")
	default:
		return activeSprintsRun(ctx, client)
	}
}

func sprintByNameRun(ctx context.Context, client *jira.Client) error {
	sprint, err := client.FindSprintByName(ctx, sprintName)
	if err != nil {
		return fmt.Errorf("search sprints: %w", err)
	}
	if sprint == nil {
		if sprintFormat == "json" {
			return printJSON(analysis.SprintLookup{SprintName: sprintName, Found: false})
		}
		ui.Error("sprint %q not found in active, closed, or future sprints", sprintName)
		return nil
	}

	result, err := analyzeOneSprint(ctx, client, *sprint)
	if err != nil {
		return err
	}

	if sprintSave {
		if err := saveSprintSnapshot(ctx, client.ProjectKey(), result); err != nil {
			ui.Warning("could not save snapshot: %v", err)
		} else {
			ui.Success("snapshot saved")
		}
	}

	if sprintFormat == "json" {
		return printJSON(analysis.SprintLookup{SprintName: sprintName, Found: true, Result: &result})
	}
	if sprintFormat == "csv" {
		rows := make([][]string, 0, len(result.Tasks))
		for _, task := range result.Tasks {
			rows = append(rows, []string{
				task.Key, task.CurrentStatus, fmt.Sprint(task.CompletedWithinSprint),
				formatDateCell(task.CompletionDate), task.Summary,
			})
		}
		return printCSV([]string{"key", "status", "completed_within_sprint", "completion_date", "summary"}, rows)
	}
	printSprintResult(result)
	return nil
}

func multiSprintRun(ctx context.Context, client *jira.Client, analysisType string) error {
	closed, err := client.ClosedSprints(ctx)
	if err != nil {
		return fmt.Errorf("fetch closed sprints: %w", err)
	}

	var selected []models.Sprint
	if analysisType == "monthly" {
		selected = analysis.FilterSprintsByMonth(closed, time.Month(sprintMonth))
	} else {
		selected = closed
		if sprintLast < len(selected) {
			selected = selected[:sprintLast]
		}
	}

	results := make([]analysis.SprintResult, 0, len(selected))
	for _, sprint := range selected {
		result, err := analyzeOneSprint(ctx, client, sprint)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	aggregate := analysis.AggregateSprints(results, analysisType)
	if analysisType == "monthly" {
		aggregate.TargetMonth = time.Month(sprintMonth)
	} else {
		aggregate.SprintCount = sprintLast
	}

	if sprintFormat == "json" {
		return printJSON(aggregate)
	}
	if sprintFormat == "csv" {
		rows := make([][]string, 0, len(aggregate.SprintResults))
		for _, r := range aggregate.SprintResults {
			rows = append(rows, []string{
				r.SprintName, formatDateCell(r.EndDate), fmt.Sprint(r.TotalTasks),
				fmt.Sprint(r.CompletedWithinSprint), fmt.Sprintf("%.1f", r.CompletionRate),
			})
		}
		return printCSV([]string{"sprint", "end_date", "tasks", "completed", "rate_pct"}, rows)
	}
	printMultiSprintResult(aggregate)
	return nil
}

func activeSprintsRun(ctx context.Context, client *jira.Client) error {
	sprints, err := client.ActiveSprints(ctx)
	if err != nil {
		return fmt.Errorf("fetch active sprints: %w", err)
	}

	summaries := make([]analysis.ActiveSprintSummary, 0, len(sprints))
	for _, sprint := range sprints {
		issues, err := client.SprintIssues(ctx, sprint.ID)
		if err != nil {
			return fmt.Errorf("fetch issues for sprint %q: %w", sprint.Name, err)
		}
		summaries = append(summaries, analysis.SummarizeActiveSprint(sprint, issues))
	}

	if sprintFormat == "json" {
		return printJSON(summaries)
	}
	if sprintFormat == "csv" {
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{
				s.Name, formatDateCell(s.StartDate), formatDateCell(s.EndDate),
				fmt.Sprint(s.TotalIssues), fmt.Sprint(s.DoneIssues), fmt.Sprintf("%.1f", s.CompletionRate),
			})
		}
		return printCSV([]string{"sprint", "start_date", "end_date", "issues", "done", "progress_pct"}, rows)
	}

	if len(summaries) == 0 {
		ui.Info("no active sprints for project %s", client.ProjectKey())
		return nil
	}
	table := ui.Table([]string{"Sprint", "Start", "End", "Issues", "Done", "Progress"})
	for _, s := range summaries {
		table.Append([]string{
			s.Name,
			formatDateCell(s.StartDate),
			formatDateCell(s.EndDate),
			fmt.Sprint(s.TotalIssues),
			fmt.Sprint(s.DoneIssues),
			output.RateColor(s.CompletionRate),
		})
	}
	return table.Render()
}

// analyzeOneSprint fetches a sprint's issues with changelogs and scores them.
func analyzeOneSprint(ctx context.Context, client *jira.Client, sprint models.Sprint) (analysis.SprintResult, error) {
	ui.VerboseLog("analyzing sprint %q (id %d)", sprint.Name, sprint.ID)
	issues, err := client.SprintIssues(ctx, sprint.ID)
	if err != nil {
		return analysis.SprintResult{}, fmt.Errorf("fetch issues for sprint %q: %w", sprint.Name, err)
	}
	return analysis.AnalyzeSprint(sprint, issues), nil
}

func printSprintResult(result analysis.SprintResult) {
	ui.Info("Sprint: %s (%s)", result.SprintName, result.State)
	fmt.Fprintf(ui.Out, "Window: %s → %s\n", formatDateCell(result.StartDate), formatDateCell(result.EndDate))
	fmt.Fprintf(ui.Out, "Completed within sprint: %d/%d (%s)\n\n",
		result.CompletedWithinSprint, result.TotalTasks, output.RateColor(result.CompletionRate))

	if len(result.Tasks) == 0 {
		ui.Info("no issues in this sprint")
		return
	}
	table := ui.Table([]string{"Key", "Status", "Done", "Done Date", "Summary"})
	for _, task := range result.Tasks {
		mark := "no"
		if task.CompletedWithinSprint {
			mark = "yes"
		}
		table.Append([]string{
			task.Key,
			output.StatusColor(task.CurrentStatus),
			mark,
			formatDateCell(task.CompletionDate),
			truncateCell(task.Summary, 50),
		})
	}
	_ = table.Render()
}

func printMultiSprintResult(aggregate analysis.MultiSprintResult) {
	label := aggregate.AnalysisType
	if aggregate.AnalysisType == "monthly" {
		label = fmt.Sprintf("closed sprints ending in %s", aggregate.TargetMonth)
	} else if aggregate.SprintCount > 0 {
		label = fmt.Sprintf("last %d closed sprints", aggregate.SprintCount)
	}
	ui.Info("Sprint completion: %s", label)

	if len(aggregate.SprintResults) == 0 {
		ui.Info("no matching sprints")
		return
	}

	fmt.Fprintf(ui.Out, "Overall: %d/%d tasks (%s)   Best: %.1f%%   Worst: %.1f%%\n\n",
		aggregate.TotalCompleted, aggregate.TotalTasks,
		output.RateColor(aggregate.AverageCompletionRate),
		aggregate.BestSprintRate, aggregate.WorstSprintRate)

	table := ui.Table([]string{"Sprint", "End", "Tasks", "Completed", "Rate"})
	for _, r := range aggregate.SprintResults {
		table.Append([]string{
			r.SprintName,
			formatDateCell(r.EndDate),
			fmt.Sprint(r.TotalTasks),
			fmt.Sprint(r.CompletedWithinSprint),
			output.RateColor(r.CompletionRate),
		})
	}
	_ = table.Render()
}

func saveSprintSnapshot(ctx context.Context, projectKey string, result analysis.SprintResult) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	details, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.SaveSnapshot(ctx, &store.Snapshot{
		Kind:        store.SnapshotSprint,
		ProjectKey:  projectKey,
		Label:       result.SprintName,
		Score:       result.CompletionRate,
		TotalIssues: result.TotalTasks,
		Details:     string(details),
	})
}

func formatDateCell(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
