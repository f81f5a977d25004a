package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pmorales/jiratools/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server exposing the analyzers",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients query backlog hygiene and sprint completion
natively. Configure with:

  {
    "mcpServers": {
      "jiratools": { "command": "jiratools", "args": ["mcp"] }
    }
  }

Available tools: jira_backlog_hygiene, jira_stale_issues,
jira_incomplete_issues, jira_sprint_completion`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := jiraClient()
		if err != nil {
			return err
		}
		return mcp.NewServer(client).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
