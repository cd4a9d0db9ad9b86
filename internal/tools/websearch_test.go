package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTavilyServer(t *testing.T, response tavilyResponse) (*httptest.Server, *tavilyRequest) {
	t.Helper()
	var captured tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func TestWebSearchExecute(t *testing.T) {
	t.Parallel()

	server, captured := newTavilyServer(t, tavilyResponse{
		Query:  "Avanza ISK fees 2026",
		Answer: "Avanza charges no annual fee for ISK accounts.",
		Results: []tavilyResult{
			{Title: "Avanza ISK", URL: "https://avanza.se/isk", Content: "ISK account terms", Score: 0.9},
			{Title: "ISK comparison", URL: "https://example.se/isk", Content: "Fee overview", Score: 0.7},
		},
	})
	search := NewWebSearch("test-key", server.URL)

	result, err := search.Execute(context.Background(), json.RawMessage(`{"query":"Avanza ISK fees 2026"}`))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content, "Search Query: Avanza ISK fees 2026")
	assert.Contains(t, result.Content, "Summary: Avanza charges no annual fee")
	assert.Contains(t, result.Content, "1. Avanza ISK")
	assert.Contains(t, result.Content, "https://avanza.se/isk")
	assert.Contains(t, result.Content, "2. ISK comparison")

	assert.Equal(t, "test-key", captured.APIKey)
	assert.Equal(t, "Avanza ISK fees 2026", captured.Query)
	assert.Equal(t, "basic", captured.SearchDepth)
	assert.True(t, captured.IncludeAnswer)
	assert.Equal(t, 5, captured.MaxResults)
}

func TestWebSearchRequiresQuery(t *testing.T) {
	t.Parallel()

	search := NewWebSearch("test-key", "http://127.0.0.1:0")
	_, err := search.Execute(context.Background(), json.RawMessage(`{"query":"  "}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestWebSearchAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	t.Cleanup(server.Close)

	search := NewWebSearch("bad-key", server.URL)
	_, err := search.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestWebSearchNoResults(t *testing.T) {
	t.Parallel()

	server, _ := newTavilyServer(t, tavilyResponse{Query: "obscure bank"})
	search := NewWebSearch("test-key", server.URL)

	content, err := search.Search(context.Background(), "obscure bank")
	require.NoError(t, err)
	assert.Contains(t, content, "No results found.")
}

func TestWebSearchTruncatesLongContent(t *testing.T) {
	t.Parallel()

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	formatted := formatSearchResults(&tavilyResponse{
		Query:   "q",
		Results: []tavilyResult{{Title: "Long", URL: "https://example.se", Content: string(long)}},
	})
	assert.Contains(t, formatted, string(long[:500])+"...")
	assert.NotContains(t, formatted, string(long[:501]))
}

func TestWebSearchDefaultURL(t *testing.T) {
	t.Parallel()

	search := NewWebSearch("test-key", "")
	assert.Equal(t, DefaultSearchURL, search.apiURL)
	assert.Equal(t, "search_financial_info", search.Name())
}
