// Package search implements the web search providers the engine fans out to.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mikeboe/deep-research/pkg/research"
)

// DefaultFirecrawlBaseURL is used when FIRECRAWL_BASE_URL is not set.
const DefaultFirecrawlBaseURL = "https://api.firecrawl.com"

// ErrMissingAPIKey reports a provider constructed without the credential it
// needs. It is returned before any network attempt.
var ErrMissingAPIKey = errors.New("search API key is missing")

// Firecrawl searches the web through the Firecrawl search API, which returns
// page content as markdown alongside each hit.
type Firecrawl struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewFirecrawl(apiKey, baseURL string) *Firecrawl {
	return NewFirecrawlWithClient(apiKey, baseURL, &http.Client{Timeout: 30 * time.Second})
}

// NewFirecrawlWithClient constructs a Firecrawl provider with a caller-owned
// HTTP client.
func NewFirecrawlWithClient(apiKey, baseURL string, client *http.Client) *Firecrawl {
	if baseURL == "" {
		baseURL = DefaultFirecrawlBaseURL
	}
	return &Firecrawl{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Search runs one web search and returns the documents Firecrawl found.
func (f *Firecrawl) Search(ctx context.Context, query string, limit int) ([]research.SearchResult, error) {
	if strings.TrimSpace(f.apiKey) == "" {
		return nil, fmt.Errorf("firecrawl: %w (set FIRECRAWL_KEY)", ErrMissingAPIKey)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firecrawl request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("firecrawl returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Data []struct {
			URL      string `json:"url"`
			Markdown string `json:"markdown"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode firecrawl response: %w", err)
	}

	results := make([]research.SearchResult, 0, len(response.Data))
	for _, item := range response.Data {
		results = append(results, research.SearchResult{URL: item.URL, Markdown: item.Markdown})
	}
	return results, nil
}
