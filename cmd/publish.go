package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmorales/jiratools/internal/analysis"
	"github.com/pmorales/jiratools/internal/confluence"
	"github.com/pmorales/jiratools/internal/jira"
	"github.com/pmorales/jiratools/internal/render"
)

var (
	publishSpace  string
	publishTitle  string
	publishParent string
	publishSprint string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish analysis reports to Confluence",
	Long: `Render an analysis report as Confluence storage-format HTML and
create or update the page. Pages are matched by space and title: an existing
page is updated in place, otherwise a new one is created (optionally under a
parent page).`,
}

var publishHygieneCmd = &cobra.Command{
	Use:   "hygiene",
	Short: "Publish the backlog hygiene report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishHygieneRun(cmd)
	},
}

var publishSprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Publish a sprint completion report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSprintRun(cmd)
	},
}

func init() {
	publishCmd.PersistentFlags().StringVar(&publishSpace, "space", "", "Confluence space key (default from config)")
	publishCmd.PersistentFlags().StringVar(&publishTitle, "title", "", "Page title (default derived from the report)")
	publishCmd.PersistentFlags().StringVar(&publishParent, "parent", "", "Parent page title for newly created pages")
	publishSprintCmd.Flags().StringVar(&publishSprint, "name", "", "Sprint name to analyze (required)")

	publishCmd.AddCommand(publishHygieneCmd)
	publishCmd.AddCommand(publishSprintCmd)
	rootCmd.AddCommand(publishCmd)
}

// confluenceClient builds the wiki client and resolves the target space.
func confluenceClient() (*confluence.Client, string, error) {
	c, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	section := c.Section("confluence")
	if section["url"] == "" || section["username"] == "" || section["api_token"] == "" {
		return nil, "", fmt.Errorf("confluence is not configured: set url, username, and api_token in the confluence section")
	}
	space := publishSpace
	if space == "" {
		space = section["space"]
	}
	if space == "" {
		return nil, "", fmt.Errorf("no Confluence space: pass --space or set confluence.space in config")
	}
	return confluence.NewClient(section["url"], section["username"], section["api_token"]), space, nil
}

func publishHygieneRun(cmd *cobra.Command) error {
	ctx := cmd.Context()

	client, err := jiraClient()
	if err != nil {
		return err
	}
	wiki, space, err := confluenceClient()
	if err != nil {
		return err
	}

	issues, err := fetchBacklog(ctx, client)
	if err != nil {
		return err
	}
	report := analysis.AnalyzeBacklog(issues, time.Now())

	summarizer := newSummarizer(cmd)
	recommendations := summarizer.HygieneRecommendations(ctx, report)

	renderer := render.Renderer{JiraBaseURL: mustJiraURL()}
	body := renderer.HygieneReport(report, recommendations)

	title := publishTitle
	if title == "" {
		title = fmt.Sprintf("Backlog Hygiene Report - %s - %s",
			client.ProjectKey(), time.Now().Format("2006-01-02"))
	}

	result, err := wiki.Publish(ctx, space, title, publishParent, body)
	if err != nil {
		return fmt.Errorf("publish hygiene report: %w", err)
	}
	ui.Success("%s page %q in space %s", result.Action, result.Title, result.Space)
	fmt.Fprintln(ui.Out, result.PageURL)
	return nil
}

func publishSprintRun(cmd *cobra.Command) error {
	if publishSprint == "" {
		return fmt.Errorf("--name is required")
	}
	ctx := cmd.Context()

	client, err := jiraClient()
	if err != nil {
		return err
	}
	wiki, space, err := confluenceClient()
	if err != nil {
		return err
	}

	renderer := render.Renderer{JiraBaseURL: mustJiraURL()}

	sprint, err := client.FindSprintByName(ctx, publishSprint)
	if err != nil {
		return fmt.Errorf("search sprints: %w", err)
	}

	var body, title string
	if sprint == nil {
		ui.Warning("sprint %q not found, publishing a not-found page", publishSprint)
		body = renderer.SprintNotFound(publishSprint)
		title = fmt.Sprintf("Sprint Report - %s", publishSprint)
	} else {
		result, err := analyzeOneSprint(ctx, client, *sprint)
		if err != nil {
			return err
		}

		summarizer := newSummarizer(cmd)
		achievements := summarizer.SprintAchievements(ctx, result)

		average, hasAverage := recentSprintsAverage(ctx, client, 4)
		body = renderer.SprintReport(result, achievements, average, hasAverage)
		title = fmt.Sprintf("Sprint Report - %s", result.SprintName)
	}
	if publishTitle != "" {
		title = publishTitle
	}

	result, err := wiki.Publish(ctx, space, title, publishParent, body)
	if err != nil {
		return fmt.Errorf("publish sprint report: %w", err)
	}
	ui.Success("%s page %q in space %s", result.Action, result.Title, result.Space)
	fmt.Fprintln(ui.Out, result.PageURL)
	return nil
}

// recentSprintsAverage computes the unweighted mean completion rate of the
// last n closed sprints for the team-context section. Failures degrade to
// "no context" rather than aborting the publish.
func recentSprintsAverage(ctx context.Context, client *jira.Client, n int) (float64, bool) {
	closed, err := client.ClosedSprints(ctx)
	if err != nil {
		ui.Warning("could not fetch closed sprints for team context: %v", err)
		return 0, false
	}
	if len(closed) > n {
		closed = closed[:n]
	}

	results := make([]analysis.SprintResult, 0, len(closed))
	for _, sprint := range closed {
		result, err := analyzeOneSprint(ctx, client, sprint)
		if err != nil {
			ui.Warning("could not analyze sprint %q for team context: %v", sprint.Name, err)
			return 0, false
		}
		results = append(results, result)
	}
	if len(results) == 0 {
		return 0, false
	}
	return analysis.UnweightedAverageRate(results), true
}

func mustJiraURL() string {
	if c, err := loadConfig(); err == nil {
		return c.Jira.URL
	}
	return ""
}
