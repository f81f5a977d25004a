package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmorales/jiratools/internal/output"
	"github.com/pmorales/jiratools/internal/store"
)

var (
	historyKind  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show saved analysis snapshots",
	Long: `Show the locally saved analysis history. Runs of 'backlog --save'
and 'sprint --save' record a snapshot, so the hygiene score and completion
rate can be tracked over time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun(cmd)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "Filter by snapshot kind: hygiene, sprint")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum snapshots to show")
	rootCmd.AddCommand(historyCmd)
}

func historyRun(cmd *cobra.Command) error {
	switch historyKind {
	case "", string(store.SnapshotHygiene), string(store.SnapshotSprint):
	default:
		return fmt.Errorf("unknown kind: %s (use: hygiene, sprint)", historyKind)
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	projectKey := ""
	if c, err := loadConfig(); err == nil {
		projectKey = c.Jira.ProjectKey
	}

	snaps, err := s.ListSnapshots(cmd.Context(), store.SnapshotFilter{
		ProjectKey: projectKey,
		Kind:       store.SnapshotKind(historyKind),
		Limit:      historyLimit,
	})
	if err != nil {
		return err
	}

	if len(snaps) == 0 {
		ui.Info("no snapshots yet; run 'jiratools backlog --save' or 'jiratools sprint --name X --save'")
		return nil
	}

	table := ui.Table([]string{"Date", "Kind", "Project", "Label", "Score", "Issues"})
	for _, snap := range snaps {
		label := snap.Label
		if label == "" {
			label = "-"
		}
		score := output.ScoreColor(snap.Score)
		if snap.Kind == store.SnapshotSprint {
			score = output.RateColor(snap.Score)
		}
		table.Append([]string{
			snap.CreatedAt.Format("2006-01-02 15:04"),
			string(snap.Kind),
			snap.ProjectKey,
			label,
			score,
			fmt.Sprint(snap.TotalIssues),
		})
	}
	return table.Render()
}
