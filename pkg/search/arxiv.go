package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mikeboe/deep-research/pkg/research"
)

const defaultArxivBaseURL = "http://export.arxiv.org/api/query"

// Arxiv searches academic papers through the arXiv Atom API. Each result
// carries the paper abstract; when an OCR client is configured the full PDF
// text is used instead.
type Arxiv struct {
	baseURL string
	client  *http.Client

	// OCR extracts full paper text when set. Extraction failures fall back
	// to the abstract.
	OCR *MistralOCR

	Logger *slog.Logger
}

func NewArxiv() *Arxiv {
	return &Arxiv{
		baseURL: defaultArxivBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		Logger:  slog.Default(),
	}
}

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string      `xml:"id"`
	Title   string      `xml:"title"`
	Summary string      `xml:"summary"`
	Links   []arxivLink `xml:"link"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

func (e arxivEntry) pdfLink() string {
	for _, link := range e.Links {
		if link.Type == "application/pdf" {
			return link.Href
		}
	}
	return ""
}

// Search queries arXiv and returns up to limit papers, sorted by relevance.
func (a *Arxiv) Search(ctx context.Context, query string, limit int) ([]research.SearchResult, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sortBy", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create arxiv request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("arxiv returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode arxiv feed: %w", err)
	}

	results := make([]research.SearchResult, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		content := strings.TrimSpace(entry.Summary)

		source := entry.pdfLink()
		if source == "" {
			source = strings.TrimSpace(entry.ID)
		}

		if a.OCR != nil && entry.pdfLink() != "" {
			text, err := a.OCR.ExtractPDF(ctx, entry.pdfLink())
			if err != nil {
				a.Logger.Warn("PDF extraction failed, keeping abstract", "url", source, "error", err)
			} else if text != "" {
				content = text
			}
		}

		title := strings.TrimSpace(entry.Title)
		if title != "" {
			content = "# " + title + "\n\n" + content
		}

		results = append(results, research.SearchResult{URL: source, Markdown: content})
	}
	return results, nil
}
