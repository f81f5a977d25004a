// Package confluence publishes rendered reports as Confluence pages via the
// content REST API, creating pages the first time and updating them in place
// on republish.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Client talks to a Confluence site with basic auth.
type Client struct {
	baseURL  string
	username string
	token    string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a Confluence client. baseURL is the wiki root, e.g.
// https://your-domain.atlassian.net/wiki.
func NewClient(baseURL, username, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		token:    token,
		http:     &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PublishResult describes the page a publish call produced.
type PublishResult struct {
	Action  string `json:"action"`
	PageID  string `json:"page_id"`
	PageURL string `json:"page_url"`
	Title   string `json:"title"`
	Space   string `json:"space"`
}

type pageRef struct {
	ID      string `json:"id"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("confluence api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// PageID looks up a page by space and title. A missing page is ("", nil):
// absence decides create-versus-update, so it is not an error.
func (c *Client) PageID(ctx context.Context, space, title string) (string, error) {
	page, err := c.pageByTitle(ctx, space, title)
	if err != nil {
		return "", err
	}
	if page == nil {
		return "", nil
	}
	return page.ID, nil
}

func (c *Client) pageByTitle(ctx context.Context, space, title string) (*pageRef, error) {
	q := url.Values{}
	q.Set("spaceKey", space)
	q.Set("title", title)
	q.Set("expand", "version")

	var out struct {
		Results []pageRef `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/content", q, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	return &out.Results[0], nil
}

// Publish writes a page with the given storage-format body, creating it
// under the optional parent or updating the existing page of the same title
// with an incremented version.
func (c *Client) Publish(ctx context.Context, space, title, parentTitle, body string) (PublishResult, error) {
	existing, err := c.pageByTitle(ctx, space, title)
	if err != nil {
		return PublishResult{}, fmt.Errorf("confluence: looking up page %q: %w", title, err)
	}

	result := PublishResult{Title: title, Space: space}
	if existing != nil {
		if err := c.updatePage(ctx, existing, title, body); err != nil {
			return PublishResult{}, fmt.Errorf("confluence: updating page %q: %w", title, err)
		}
		result.Action = "updated"
		result.PageID = existing.ID
	} else {
		var parentID string
		if parentTitle != "" {
			parentID, err = c.PageID(ctx, space, parentTitle)
			if err != nil {
				return PublishResult{}, fmt.Errorf("confluence: looking up parent %q: %w", parentTitle, err)
			}
		}
		id, err := c.createPage(ctx, space, title, parentID, body)
		if err != nil {
			return PublishResult{}, fmt.Errorf("confluence: creating page %q: %w", title, err)
		}
		result.Action = "created"
		result.PageID = id
	}

	result.PageURL = fmt.Sprintf("%s/pages/viewpage.action?pageId=%s", c.baseURL, result.PageID)
	return result, nil
}

func (c *Client) createPage(ctx context.Context, space, title, parentID, body string) (string, error) {
	payload := map[string]any{
		"type":  "page",
		"title": title,
		"space": map[string]string{"key": space},
		"body": map[string]any{
			"storage": map[string]string{
				"value":          body,
				"representation": "storage",
			},
		},
	}
	if parentID != "" {
		payload["ancestors"] = []map[string]string{{"id": parentID}}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/content", nil, payload, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) updatePage(ctx context.Context, existing *pageRef, title, body string) error {
	payload := map[string]any{
		"type":    "page",
		"title":   title,
		"version": map[string]int{"number": existing.Version.Number + 1},
		"body": map[string]any{
			"storage": map[string]string{
				"value":          body,
				"representation": "storage",
			},
		},
	}
	return c.do(ctx, http.MethodPut, "/rest/api/content/"+url.PathEscape(existing.ID), nil, payload, nil)
}

// TestConnection verifies the credentials against the current-user endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	var out struct {
		DisplayName string `json:"displayName"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/user/current", nil, nil, &out); err != nil {
		return fmt.Errorf("confluence: connection test failed: %w", err)
	}
	return nil
}
