package confluence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "reporter@example.com", "token123", WithHTTPClient(server.Client()))
	return client, server
}

func TestPublish_CreatesNewPage(t *testing.T) {
	var created map[string]any
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rest/api/content":
			// Neither the page nor its parent exists yet.
			assert.Equal(t, "TEAM", r.URL.Query().Get("spaceKey"))
			json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
		case r.Method == http.MethodPost && r.URL.Path == "/rest/api/content":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			json.NewEncoder(w).Encode(map[string]string{"id": "12345"})
		default:
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))

	result, err := client.Publish(context.Background(), "TEAM", "Sprint Report", "", "<h1>Report</h1>")
	require.NoError(t, err)

	assert.Equal(t, "created", result.Action)
	assert.Equal(t, "12345", result.PageID)
	assert.Equal(t, server.URL+"/pages/viewpage.action?pageId=12345", result.PageURL)
	assert.Equal(t, "Sprint Report", result.Title)
	assert.Equal(t, "TEAM", result.Space)

	assert.Equal(t, "page", created["type"])
	body := created["body"].(map[string]any)["storage"].(map[string]any)
	assert.Equal(t, "<h1>Report</h1>", body["value"])
	assert.Equal(t, "storage", body["representation"])
	assert.Nil(t, created["ancestors"])
}

func TestPublish_CreateUnderParent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			title := r.URL.Query().Get("title")
			if title == "Reports Home" {
				json.NewEncoder(w).Encode(map[string]any{
					"results": []map[string]any{{"id": "777", "version": map[string]int{"number": 4}}},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
			return
		}

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		ancestors := payload["ancestors"].([]any)
		require.Len(t, ancestors, 1)
		assert.Equal(t, "777", ancestors[0].(map[string]any)["id"])
		json.NewEncoder(w).Encode(map[string]string{"id": "888"})
	}))

	result, err := client.Publish(context.Background(), "TEAM", "Sprint Report", "Reports Home", "<p>body</p>")
	require.NoError(t, err)
	assert.Equal(t, "created", result.Action)
	assert.Equal(t, "888", result.PageID)
}

func TestPublish_UpdatesExistingPageWithVersionBump(t *testing.T) {
	var updated map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{{"id": "12345", "version": map[string]int{"number": 3}}},
			})
		case http.MethodPut:
			assert.Equal(t, "/rest/api/content/12345", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			json.NewEncoder(w).Encode(map[string]string{"id": "12345"})
		default:
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))

	result, err := client.Publish(context.Background(), "TEAM", "Sprint Report", "", "<p>v2</p>")
	require.NoError(t, err)

	assert.Equal(t, "updated", result.Action)
	assert.Equal(t, "12345", result.PageID)
	version := updated["version"].(map[string]any)
	assert.Equal(t, 4.0, version["number"])
}

func TestPageID_Missing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))

	id, err := client.PageID(context.Background(), "TEAM", "Nope")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestPublish_APIErrorSurfaces(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.Publish(context.Background(), "TEAM", "Sprint Report", "", "<p></p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=403")
}

func TestTestConnection(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, token, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "reporter@example.com", user)
		assert.Equal(t, "token123", token)
		assert.Equal(t, "/rest/api/user/current", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"displayName": "Pat"})
	}))

	assert.NoError(t, client.TestConnection(context.Background()))
}

func TestTestConnection_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	assert.Error(t, client.TestConnection(context.Background()))
}
