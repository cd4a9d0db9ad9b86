package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultSearchURL is the Tavily endpoint used when no override is configured.
const DefaultSearchURL = "https://api.tavily.com/search"

// WebSearch looks up current financial information through the Tavily API.
// Rates, fees, and product terms change too often to bake into instructions,
// so agents reach for this instead of guessing.
type WebSearch struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewWebSearch creates the search capability. An empty apiURL selects the
// default Tavily endpoint.
func NewWebSearch(apiKey, apiURL string) *WebSearch {
	if apiURL == "" {
		apiURL = DefaultSearchURL
	}
	return &WebSearch{
		apiKey: apiKey,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *WebSearch) Name() string {
	return "search_financial_info"
}

func (t *WebSearch) Description() string {
	return "Search the web for current financial information, rates, comparisons, or general knowledge"
}

func (t *WebSearch) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "Search query for financial information (e.g., 'Avanza interest rate 2026', 'Compare Nordea and SEB savings accounts')"
			}
		},
		"required": ["query"]
	}`)
}

func (t *WebSearch) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var a struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return ToolResult{}, fmt.Errorf("parse arguments: %w", err)
	}
	if strings.TrimSpace(a.Query) == "" {
		return ToolResult{}, fmt.Errorf("query is required")
	}

	content, err := t.Search(ctx, a.Query)
	if err != nil {
		return ToolResult{}, err
	}
	return ToolResult{Content: content}, nil
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth,omitempty"`
	IncludeAnswer bool   `json:"include_answer,omitempty"`
	MaxResults    int    `json:"max_results,omitempty"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Search runs one query and returns the formatted results. Exposed so other
// capabilities can compose richer queries over the same backend.
func (t *WebSearch) Search(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(tavilyRequest{
		APIKey:        t.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
		MaxResults:    5,
	})
	if err != nil {
		return "", fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse search response: %w", err)
	}
	return formatSearchResults(&parsed), nil
}

func formatSearchResults(resp *tavilyResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search Query: %s\n\n", resp.Query)
	if resp.Answer != "" {
		fmt.Fprintf(&b, "Summary: %s\n\n", resp.Answer)
	}
	if len(resp.Results) == 0 {
		b.WriteString("No results found.\n")
		return b.String()
	}

	b.WriteString("Search Results:\n")
	for i, r := range resp.Results {
		content := r.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n   Content: %s\n", i+1, r.Title, r.URL, content)
	}
	return b.String()
}
