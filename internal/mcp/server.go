package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pmorales/jiratools/internal/analysis"
	"github.com/pmorales/jiratools/internal/models"
)

// IssueSource is the subset of the Jira client the MCP tools need. Defined
// here so tests can substitute a fake without a live Jira instance.
type IssueSource interface {
	ProjectKey() string
	BacklogIssues(ctx context.Context) ([]models.Issue, error)
	SprintIssues(ctx context.Context, sprintID int) ([]models.Issue, error)
	ActiveSprints(ctx context.Context) ([]models.Sprint, error)
	FindSprintByName(ctx context.Context, name string) (*models.Sprint, error)
}

// Server exposes backlog and sprint analysis as MCP tools over stdio.
type Server struct {
	source IssueSource
	now    func() time.Time
}

// NewServer creates the MCP server wrapper around a Jira issue source.
func NewServer(source IssueSource) *Server {
	return &Server{source: source, now: time.Now}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("jiratools", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.backlogHygieneTool())
	srv.AddTool(s.staleIssuesTool())
	srv.AddTool(s.incompleteIssuesTool())
	srv.AddTool(s.sprintCompletionTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// jira_backlog_hygiene
func (s *Server) backlogHygieneTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jira_backlog_hygiene",
		mcp.WithDescription("Analyze backlog hygiene for the configured Jira project. Returns a JSON report with a 0-100 hygiene score, field completeness percentages, age distribution, priority and epic coverage, and recommendations. Set full=true for the complete report instead of the summary."),
		mcp.WithBoolean("full", mcp.Description("Return the full report with all distributions (default: summary only)")),
	)
	return tool, s.handleBacklogHygiene
}

func (s *Server) handleBacklogHygiene(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues, err := s.source.BacklogIssues(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch backlog: %v", err)), nil
	}

	if request.GetBool("full", false) {
		return toolJSON(analysis.AnalyzeBacklog(issues, s.now()))
	}
	return toolJSON(analysis.Summarize(issues, s.now()))
}

// jira_stale_issues
func (s *Server) staleIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jira_stale_issues",
		mcp.WithDescription("Find backlog issues older than a day threshold, sorted oldest first. Returns a JSON report with the matching issues, staleness percentage, and the oldest issue age."),
		mcp.WithNumber("days", mcp.Description("Age threshold in days (default: 90)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of issues to return (default: all)")),
	)
	return tool, s.handleStaleIssues
}

func (s *Server) handleStaleIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := request.GetInt("days", analysis.DefaultStaleThresholdDays)
	if days <= 0 {
		return mcp.NewToolResultError("days must be a positive number"), nil
	}

	issues, err := s.source.BacklogIssues(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch backlog: %v", err)), nil
	}

	report := analysis.FindStaleIssues(issues, days, s.now())
	if limit := request.GetInt("limit", 0); limit > 0 && limit < len(report.StaleIssues) {
		report.StaleIssues = report.StaleIssues[:limit]
	}
	return toolJSON(report)
}

// jira_incomplete_issues
func (s *Server) incompleteIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jira_incomplete_issues",
		mcp.WithDescription("Find backlog issues missing descriptions, epic links, priorities, or story-point estimates. Returns a JSON report sorted by number of missing fields, with per-field gap statistics."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of issues to return (default: all)")),
	)
	return tool, s.handleIncompleteIssues
}

func (s *Server) handleIncompleteIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues, err := s.source.BacklogIssues(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch backlog: %v", err)), nil
	}

	report := analysis.FindIncompleteIssues(issues, s.now())
	if limit := request.GetInt("limit", 0); limit > 0 && limit < len(report.IncompleteIssues) {
		report.IncompleteIssues = report.IncompleteIssues[:limit]
	}
	return toolJSON(report)
}

// jira_sprint_completion
func (s *Server) sprintCompletionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jira_sprint_completion",
		mcp.WithDescription("Analyze sprint completion. With a sprint name, returns the full completion analysis (tasks completed within the sprint window). Without one, returns a live progress summary for each active sprint."),
		mcp.WithString("sprint", mcp.Description("Sprint name, matched case-insensitively (default: summarize active sprints)")),
	)
	return tool, s.handleSprintCompletion
}

func (s *Server) handleSprintCompletion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("sprint", "")
	if name == "" {
		return s.activeSprintSummaries(ctx)
	}

	sprint, err := s.source.FindSprintByName(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to search sprints: %v", err)), nil
	}
	if sprint == nil {
		return toolJSON(analysis.SprintLookup{SprintName: name, Found: false})
	}

	issues, err := s.source.SprintIssues(ctx, sprint.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch sprint issues: %v", err)), nil
	}

	result := analysis.AnalyzeSprint(*sprint, issues)
	return toolJSON(analysis.SprintLookup{SprintName: name, Found: true, Result: &result})
}

func (s *Server) activeSprintSummaries(ctx context.Context) (*mcp.CallToolResult, error) {
	sprints, err := s.source.ActiveSprints(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch active sprints: %v", err)), nil
	}
	if len(sprints) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(`{"project":%q,"active_sprints":[]}`, s.source.ProjectKey())), nil
	}

	summaries := make([]analysis.ActiveSprintSummary, 0, len(sprints))
	for _, sprint := range sprints {
		issues, err := s.source.SprintIssues(ctx, sprint.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch issues for sprint %q: %v", sprint.Name, err)), nil
		}
		summaries = append(summaries, analysis.SummarizeActiveSprint(sprint, issues))
	}

	return toolJSON(map[string]any{
		"project":        s.source.ProjectKey(),
		"active_sprints": summaries,
	})
}
