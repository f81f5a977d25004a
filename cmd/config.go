package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pmorales/jiratools/internal/config"
	"github.com/pmorales/jiratools/internal/output"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage jiratools configuration.

Configuration is resolved from the environment first (JIRA_URL,
JIRA_USERNAME, JIRA_API_TOKEN, JIRA_PROJECT_KEY, after loading .env), then
from the config file. Running bare 'jiratools config' is the same as
'jiratools config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sample config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration and its source",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the Jira and Confluence connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configTestRun(cmd)
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configTestCmd)
	rootCmd.AddCommand(configCmd)
}

func configInitRun() error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.WriteSample(path); err != nil {
		return err
	}
	ui.Success("created %s", path)
	ui.Info("fill in your Jira credentials, then run 'jiratools config test'")
	return nil
}

func configShowRun() error {
	c, err := loadConfig()
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			ui.Error("no configuration found")
			ui.Info("run 'jiratools config init' or set the JIRA_* environment variables")
			return nil
		}
		return err
	}

	ui.Info("configuration source: %s", c.Source)
	fmt.Fprintln(ui.Out)

	table := ui.Table([]string{"Setting", "Value"})
	table.Append([]string{"jira.url", c.Jira.URL})
	table.Append([]string{"jira.username", c.Jira.Username})
	table.Append([]string{"jira.api_token", maskSecret(c.Jira.APIToken)})
	table.Append([]string{"jira.project_key", c.Jira.ProjectKey})

	wiki := c.Section("confluence")
	table.Append([]string{"confluence.url", orUnset(wiki["url"])})
	table.Append([]string{"confluence.username", orUnset(wiki["username"])})
	table.Append([]string{"confluence.api_token", maskSecret(wiki["api_token"])})
	table.Append([]string{"confluence.space", orUnset(wiki["space"])})

	aiCfg := c.Section("ai")
	table.Append([]string{"ai.gemini_api_key", maskSecret(aiCfg["gemini_api_key"])})
	table.Append([]string{"ai.anthropic_api_key", maskSecret(aiCfg["anthropic_api_key"])})
	return table.Render()
}

func configTestRun(cmd *cobra.Command) error {
	ctx := cmd.Context()

	client, err := jiraClient()
	if err != nil {
		return err
	}

	status := client.TestConnection(ctx)
	if status.Status == "success" {
		ui.Success("Jira: connected to %s as %s (project %s)", status.Server, status.User, status.Project.Key)
	} else {
		ui.Error("Jira: %s", status.Error)
	}

	wiki, space, err := confluenceClient()
	if err != nil {
		ui.Warning("Confluence: not configured (%v)", err)
		return nil
	}
	if err := wiki.TestConnection(ctx); err != nil {
		ui.Error("Confluence: %v", err)
		return nil
	}
	ui.Success("Confluence: connected (space %s)", output.Cyan(space))
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
