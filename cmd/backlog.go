package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmorales/jiratools/internal/analysis"
	"github.com/pmorales/jiratools/internal/jira"
	"github.com/pmorales/jiratools/internal/models"
	"github.com/pmorales/jiratools/internal/output"
	"github.com/pmorales/jiratools/internal/store"
)

var (
	backlogFormat  string
	backlogSummary bool
	backlogSave    bool
	staleDays      int
	staleLimit     int
	incompleteMax  int
)

var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "Analyze backlog hygiene",
	Long: `Analyze the project backlog and produce a hygiene report: a 0-100
score weighing field completeness, average age, epic coverage, and priority
coverage, plus distributions and actionable recommendations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return backlogHygieneRun(cmd.Context())
	},
}

var backlogStaleCmd = &cobra.Command{
	Use:   "stale",
	Short: "List backlog issues past an age threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		return backlogStaleRun(cmd.Context())
	},
}

var backlogIncompleteCmd = &cobra.Command{
	Use:   "incomplete",
	Short: "List backlog issues missing required fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		return backlogIncompleteRun(cmd.Context())
	},
}

func init() {
	backlogCmd.PersistentFlags().StringVar(&backlogFormat, "format", "table", "Output format: table, json, csv")
	backlogCmd.Flags().BoolVar(&backlogSummary, "summary", false, "Print the one-line summary instead of the full report")
	backlogCmd.Flags().BoolVar(&backlogSave, "save", false, "Record this run in the local snapshot history")
	backlogStaleCmd.Flags().IntVar(&staleDays, "days", analysis.DefaultStaleThresholdDays, "Age threshold in days")
	backlogStaleCmd.Flags().IntVar(&staleLimit, "limit", 0, "Maximum issues to show (0 = all)")
	backlogIncompleteCmd.Flags().IntVar(&incompleteMax, "limit", 0, "Maximum issues to show (0 = all)")

	backlogCmd.AddCommand(backlogStaleCmd)
	backlogCmd.AddCommand(backlogIncompleteCmd)
	rootCmd.AddCommand(backlogCmd)
}

// fetchBacklog pulls the backlog and resolves epic display names so reports
// can show them alongside keys.
func fetchBacklog(ctx context.Context, client *jira.Client) ([]models.Issue, error) {
	ui.VerboseLog("fetching backlog for project %s", client.ProjectKey())
	issues, err := client.BacklogIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch backlog: %w", err)
	}
	for i := range issues {
		if key, ok := analysis.ResolveEpicKey(issues[i]); ok {
			issues[i].EpicSummary = client.EpicSummary(ctx, key)
		}
	}
	return issues, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(ui.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCSV(header []string, rows [][]string) error {
	w := csv.NewWriter(ui.Out)
	if err := w.Write(header); err != nil {
		return err
	}
	return w.WriteAll(rows)
}

func backlogHygieneRun(ctx context.Context) error {
	client, err := jiraClient()
	if err != nil {
		return err
	}
	issues, err := fetchBacklog(ctx, client)
	if err != nil {
		return err
	}

	now := time.Now()
	if backlogSummary {
		summary := analysis.Summarize(issues, now)
		if backlogFormat == "json" {
			return printJSON(summary)
		}
		ui.Info("Backlog hygiene for %s: score %s (%d issues)",
			client.ProjectKey(), output.ScoreColor(summary.HygieneScore), summary.TotalIssues)
		fmt.Fprintln(ui.Out, summary.Message)
		return nil
	}

	report := analysis.AnalyzeBacklog(issues, now)

	if backlogSave {
		if err := saveHygieneSnapshot(ctx, client.ProjectKey(), report); err != nil {
			ui.Warning("could not save snapshot: %v", err)
		} else {
			ui.Success("snapshot saved")
		}
	}

	switch backlogFormat {
	case "json":
		return printJSON(report)
	case "csv":
		return fmt.Errorf("csv output covers issue lists only; use json for the full report")
	case "table":
		printHygieneReport(client.ProjectKey(), report)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", backlogFormat)
	}
}

func printHygieneReport(projectKey string, report analysis.HygieneReport) {
	ui.Info("Backlog Hygiene Report: %s", projectKey)
	fmt.Fprintf(ui.Out, "Hygiene score: %s   Issues: %d   Avg age: %.1f days\n\n",
		output.ScoreColor(report.HygieneScore), report.TotalIssues, report.Age.AverageAgeDays)

	completeness := ui.Table([]string{"Field", "Count", "Pct"})
	completeness.Append([]string{"Description", fmt.Sprint(report.Completeness.Counts.HasDescription), fmt.Sprintf("%.1f%%", report.Completeness.HasDescriptionPct)})
	completeness.Append([]string{"Epic", fmt.Sprint(report.Completeness.Counts.HasEpic), fmt.Sprintf("%.1f%%", report.Completeness.HasEpicPct)})
	completeness.Append([]string{"Priority", fmt.Sprint(report.Completeness.Counts.HasPriority), fmt.Sprintf("%.1f%%", report.Completeness.HasPriorityPct)})
	completeness.Append([]string{"Estimate", fmt.Sprint(report.Completeness.Counts.HasEstimate), fmt.Sprintf("%.1f%%", report.Completeness.HasEstimatePct)})
	completeness.Append([]string{"Fully complete", fmt.Sprint(report.Completeness.Counts.FullyComplete), fmt.Sprintf("%.1f%%", report.Completeness.FullyCompletePct)})
	_ = completeness.Render()

	fmt.Fprintln(ui.Out)
	ages := ui.Table([]string{"Age", "Issues"})
	for _, bucket := range analysis.AgeBuckets {
		ages.Append([]string{string(bucket), fmt.Sprint(report.Age.Distribution[bucket])})
	}
	_ = ages.Render()

	if len(report.Recommendations) > 0 {
		fmt.Fprintln(ui.Out)
		ui.Info("Recommendations:")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(ui.Out, "  - %s\n", rec)
		}
	}
}

func saveHygieneSnapshot(ctx context.Context, projectKey string, report analysis.HygieneReport) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	details, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.SaveSnapshot(ctx, &store.Snapshot{
		Kind:        store.SnapshotHygiene,
		ProjectKey:  projectKey,
		Score:       report.HygieneScore,
		TotalIssues: report.TotalIssues,
		Details:     string(details),
	})
}

func backlogStaleRun(ctx context.Context) error {
	if staleDays <= 0 {
		return fmt.Errorf("--days must be positive, got %d", staleDays)
	}
	client, err := jiraClient()
	if err != nil {
		return err
	}
	issues, err := fetchBacklog(ctx, client)
	if err != nil {
		return err
	}

	report := analysis.FindStaleIssues(issues, staleDays, time.Now())
	if staleLimit > 0 && staleLimit < len(report.StaleIssues) {
		report.StaleIssues = report.StaleIssues[:staleLimit]
	}

	if backlogFormat == "json" {
		return printJSON(report)
	}
	if backlogFormat == "csv" {
		rows := make([][]string, 0, len(report.StaleIssues))
		for _, issue := range report.StaleIssues {
			rows = append(rows, []string{
				issue.Key, fmt.Sprint(issue.AgeDays), issue.Status,
				issue.Priority, issue.EpicSummary, issue.Summary,
			})
		}
		return printCSV([]string{"key", "age_days", "status", "priority", "epic", "summary"}, rows)
	}

	ui.Info("%d of %d backlog issues are older than %d days (%.1f%%)",
		report.StaleCount, report.TotalIssues, report.ThresholdDays, report.StalenessPct)
	if len(report.StaleIssues) == 0 {
		return nil
	}

	table := ui.Table([]string{"Key", "Age (days)", "Status", "Priority", "Epic", "Summary"})
	for _, issue := range report.StaleIssues {
		epic := issue.EpicSummary
		if epic == "" {
			epic = "-"
		}
		table.Append([]string{
			issue.Key,
			fmt.Sprint(issue.AgeDays),
			output.StatusColor(issue.Status),
			issue.Priority,
			epic,
			truncateCell(issue.Summary, 50),
		})
	}
	return table.Render()
}

func backlogIncompleteRun(ctx context.Context) error {
	client, err := jiraClient()
	if err != nil {
		return err
	}
	issues, err := fetchBacklog(ctx, client)
	if err != nil {
		return err
	}

	report := analysis.FindIncompleteIssues(issues, time.Now())
	if incompleteMax > 0 && incompleteMax < len(report.IncompleteIssues) {
		report.IncompleteIssues = report.IncompleteIssues[:incompleteMax]
	}

	if backlogFormat == "json" {
		return printJSON(report)
	}
	if backlogFormat == "csv" {
		rows := make([][]string, 0, len(report.IncompleteIssues))
		for _, issue := range report.IncompleteIssues {
			rows = append(rows, []string{
				issue.Key, issue.IssueType, strings.Join(issue.MissingFields, ";"),
				fmt.Sprint(issue.AgeDays), issue.Summary,
			})
		}
		return printCSV([]string{"key", "type", "missing_fields", "age_days", "summary"}, rows)
	}

	ui.Info("%d of %d backlog issues are missing fields (%.1f%% fully complete)",
		report.IncompleteCount, report.TotalIssues, report.CompletionPct)
	if len(report.IncompleteIssues) == 0 {
		return nil
	}

	table := ui.Table([]string{"Key", "Type", "Missing", "Age (days)", "Summary"})
	for _, issue := range report.IncompleteIssues {
		table.Append([]string{
			issue.Key,
			issue.IssueType,
			strings.Join(issue.MissingFields, ", "),
			fmt.Sprint(issue.AgeDays),
			truncateCell(issue.Summary, 50),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(report.MostCommonMissing) > 0 {
		fmt.Fprintln(ui.Out)
		ui.Info("Most common gaps:")
		for _, gap := range report.MostCommonMissing {
			fmt.Fprintf(ui.Out, "  - %s: %d issues (%.1f%%)\n", gap.Field, gap.Count, gap.Percentage)
		}
	}
	return nil
}

func truncateCell(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

