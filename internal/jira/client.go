package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pmorales/jiratools/internal/models"
)

// Sentinel errors for sprint discovery. Callers branch on these to turn
// "nothing to analyze" into a user-facing message instead of a stack trace.
var (
	ErrNoBoards  = errors.New("jira: no boards found for project")
	ErrNoSprints = errors.New("jira: no closed sprints found for project")
)

const (
	searchPageSize    = 100
	sprintIssuesMax   = 1000
	backlogIssuesMax  = 2000
	requestRetries    = 3
	defaultHTTPTimeout = 30 * time.Second
)

// Client talks to the Jira REST and Agile APIs with basic auth.
type Client struct {
	baseURL    string
	username   string
	token      string
	projectKey string
	http       *http.Client
	warnf      func(format string, args ...any)

	mu        sync.Mutex
	epicCache map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithWarnf installs a sink for non-fatal fetch warnings, such as a board
// whose sprints could not be listed.
func WithWarnf(fn func(format string, args ...any)) Option {
	return func(c *Client) { c.warnf = fn }
}

// NewClient builds a Jira client for one project.
func NewClient(baseURL, username, token, projectKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		token:      token,
		projectKey: projectKey,
		http:       &http.Client{Timeout: defaultHTTPTimeout},
		epicCache:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProjectKey returns the project this client is bound to.
func (c *Client) ProjectKey() string { return c.projectKey }

func (c *Client) warn(format string, args ...any) {
	if c.warnf != nil {
		c.warnf(format, args...)
	}
}

func (c *Client) apiURL(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// doJSON performs an authenticated GET and decodes the response, retrying
// 429 and 5xx responses with backoff.
func (c *Client) doJSON(ctx context.Context, u string, out any) error {
	var lastErr error
	for attempt := 0; attempt < requestRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.username, c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			apiErr := fmt.Errorf("jira api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		return err
	}
	return lastErr
}

// SearchIssues runs a JQL query and returns up to maxResults issues,
// paginating underneath. expandChangelog pulls each issue's status history
// along, which sprint replay needs and backlog analysis does not.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int, expandChangelog bool) ([]models.Issue, error) {
	issues := make([]models.Issue, 0)
	startAt := 0

	for {
		pageSize := searchPageSize
		if remaining := maxResults - len(issues); remaining < pageSize {
			pageSize = remaining
		}
		if pageSize <= 0 {
			break
		}

		q := url.Values{}
		q.Set("jql", jql)
		q.Set("startAt", fmt.Sprint(startAt))
		q.Set("maxResults", fmt.Sprint(pageSize))
		if expandChangelog {
			q.Set("expand", "changelog")
		}

		var page searchResponse
		if err := c.doJSON(ctx, c.apiURL("/rest/api/2/search", q), &page); err != nil {
			return nil, fmt.Errorf("jira: search failed: %w", err)
		}

		for _, raw := range page.Issues {
			issue, err := raw.toIssue()
			if err != nil {
				return nil, err
			}
			issues = append(issues, issue)
		}

		startAt += len(page.Issues)
		if len(page.Issues) < pageSize || startAt >= page.Total {
			break
		}
	}
	return issues, nil
}

// BacklogIssues fetches the project's groomable backlog: everything not
// terminal and not committed to a sprint, newest first.
func (c *Client) BacklogIssues(ctx context.Context) ([]models.Issue, error) {
	jql := fmt.Sprintf(
		"project = %s AND status NOT IN (Done, Closed, Resolved) AND sprint IS EMPTY ORDER BY created DESC",
		c.projectKey)
	return c.SearchIssues(ctx, jql, backlogIssuesMax, false)
}

// SprintIssues fetches every issue in a sprint with its changelog, which the
// completion replay requires.
func (c *Client) SprintIssues(ctx context.Context, sprintID int) ([]models.Issue, error) {
	jql := fmt.Sprintf("project = %s AND sprint = %d", c.projectKey, sprintID)
	return c.SearchIssues(ctx, jql, sprintIssuesMax, true)
}

// Boards lists the agile boards owning this project.
func (c *Client) Boards(ctx context.Context) ([]Board, error) {
	boards := make([]Board, 0)
	startAt := 0
	for {
		q := url.Values{}
		q.Set("projectKeyOrId", c.projectKey)
		q.Set("startAt", fmt.Sprint(startAt))

		var page boardsResponse
		if err := c.doJSON(ctx, c.apiURL("/rest/agile/1.0/board", q), &page); err != nil {
			return nil, fmt.Errorf("jira: listing boards failed: %w", err)
		}
		boards = append(boards, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			break
		}
		startAt += len(page.Values)
	}
	if len(boards) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoBoards, c.projectKey)
	}
	return boards, nil
}

func (c *Client) boardSprints(ctx context.Context, boardID int, state models.SprintState) ([]models.Sprint, error) {
	sprints := make([]models.Sprint, 0)
	startAt := 0
	for {
		q := url.Values{}
		q.Set("state", string(state))
		q.Set("startAt", fmt.Sprint(startAt))

		var page sprintsResponse
		path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
		if err := c.doJSON(ctx, c.apiURL(path, q), &page); err != nil {
			return nil, err
		}
		for _, raw := range page.Values {
			sprints = append(sprints, raw.toSprint())
		}
		if page.IsLast || len(page.Values) == 0 {
			break
		}
		startAt += len(page.Values)
	}
	return sprints, nil
}

// sprintsByState collects sprints in the given state across every board of
// the project. A board whose sprints cannot be listed is warned about and
// skipped, matching how mixed kanban/scrum setups behave.
func (c *Client) sprintsByState(ctx context.Context, state models.SprintState) ([]models.Sprint, error) {
	boards, err := c.Boards(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]models.Sprint, 0)
	for _, board := range boards {
		sprints, err := c.boardSprints(ctx, board.ID, state)
		if err != nil {
			c.warn("could not fetch %s sprints for board %s: %v", state, board.Name, err)
			continue
		}
		all = append(all, sprints...)
	}
	return all, nil
}

// ClosedSprints returns every closed sprint for the project, most recently
// ended first. Sprints missing an end date sort last.
func (c *Client) ClosedSprints(ctx context.Context) ([]models.Sprint, error) {
	sprints, err := c.sprintsByState(ctx, models.SprintStateClosed)
	if err != nil {
		return nil, err
	}
	if len(sprints) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoSprints, c.projectKey)
	}

	sort.SliceStable(sprints, func(i, j int) bool {
		a, b := sprints[i].End, sprints[j].End
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return sprints, nil
}

// ActiveSprints returns the project's in-flight sprints. Having none is a
// normal state, not an error.
func (c *Client) ActiveSprints(ctx context.Context) ([]models.Sprint, error) {
	return c.sprintsByState(ctx, models.SprintStateActive)
}

// FindSprintByName looks a sprint up by name, case-insensitively, checking
// active sprints first, then closed, then future. A miss returns nil with no
// error so callers can report it as a lookup result.
func (c *Client) FindSprintByName(ctx context.Context, name string) (*models.Sprint, error) {
	boards, err := c.Boards(ctx)
	if err != nil {
		return nil, err
	}

	states := []models.SprintState{models.SprintStateActive, models.SprintStateClosed, models.SprintStateFuture}
	for _, board := range boards {
		for _, state := range states {
			sprints, err := c.boardSprints(ctx, board.ID, state)
			if err != nil {
				c.warn("could not fetch %s sprints for board %s: %v", state, board.Name, err)
				continue
			}
			for _, sprint := range sprints {
				if strings.EqualFold(sprint.Name, name) {
					found := sprint
					return &found, nil
				}
			}
		}
	}
	return nil, nil
}

// EpicSummary resolves an epic key to its summary, caching the result for
// the life of the client. A key that cannot be fetched yields the literal
// "Epic not found" so hygiene reports still render; an empty key is "No
// Epic".
func (c *Client) EpicSummary(ctx context.Context, epicKey string) string {
	if epicKey == "" {
		return "No Epic"
	}

	c.mu.Lock()
	if summary, ok := c.epicCache[epicKey]; ok {
		c.mu.Unlock()
		return summary
	}
	c.mu.Unlock()

	var out struct {
		Fields struct {
			Summary string `json:"summary"`
		} `json:"fields"`
	}
	q := url.Values{}
	q.Set("fields", "summary")
	summary := "Epic not found"
	if err := c.doJSON(ctx, c.apiURL("/rest/api/2/issue/"+url.PathEscape(epicKey), q), &out); err == nil {
		summary = out.Fields.Summary
	}

	c.mu.Lock()
	c.epicCache[epicKey] = summary
	c.mu.Unlock()
	return summary
}

// CurrentUser returns the display name of the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	var out struct {
		DisplayName  string `json:"displayName"`
		EmailAddress string `json:"emailAddress"`
	}
	if err := c.doJSON(ctx, c.apiURL("/rest/api/2/myself", nil), &out); err != nil {
		return "", err
	}
	if out.DisplayName != "" {
		return out.DisplayName, nil
	}
	return out.EmailAddress, nil
}

// Project fetches the project's metadata.
func (c *Client) Project(ctx context.Context) (ProjectInfo, error) {
	var out struct {
		Key         string `json:"key"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Lead        struct {
			DisplayName string `json:"displayName"`
		} `json:"lead"`
		ProjectTypeKey string `json:"projectTypeKey"`
	}
	if err := c.doJSON(ctx, c.apiURL("/rest/api/2/project/"+url.PathEscape(c.projectKey), nil), &out); err != nil {
		return ProjectInfo{}, err
	}
	return ProjectInfo{
		Key:         out.Key,
		Name:        out.Name,
		Description: out.Description,
		Lead:        out.Lead.DisplayName,
		ProjectType: out.ProjectTypeKey,
	}, nil
}

// TestConnection verifies credentials and project access in one call,
// reporting a structured status rather than failing.
func (c *Client) TestConnection(ctx context.Context) ConnectionStatus {
	status := ConnectionStatus{Server: c.baseURL}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		status.Status = "failed"
		status.Error = err.Error()
		return status
	}

	project, err := c.Project(ctx)
	if err != nil {
		status.Status = "failed"
		status.User = user
		status.Error = err.Error()
		return status
	}

	status.Status = "success"
	status.User = user
	status.Project = project
	return status
}
