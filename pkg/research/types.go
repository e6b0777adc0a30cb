package research

import "context"

// SerpQuery is a single planned search-engine query together with the goal
// that query is meant to advance.
type SerpQuery struct {
	Query        string `json:"query"`
	ResearchGoal string `json:"research_goal"`
}

// SearchResult is one document returned by the search service: its source
// URL plus the extracted page content. Either field may be empty.
type SearchResult struct {
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}

// Result accumulates the findings of a research tree. Learnings and
// VisitedURLs are deduplicated, first occurrence first.
type Result struct {
	Learnings   []string `json:"learnings"`
	VisitedURLs []string `json:"visited_urls"`
}

// Progress is a snapshot of a running research traversal. One record is
// shared across the whole tree: TotalQueries grows as levels plan queries
// and CompletedQueries catches up as they are processed, so the two match
// once the traversal finishes.
type Progress struct {
	CurrentDepth     int    `json:"current_depth"`
	TotalDepth       int    `json:"total_depth"`
	CurrentBreadth   int    `json:"current_breadth"`
	TotalBreadth     int    `json:"total_breadth"`
	CurrentQuery     string `json:"current_query,omitempty"`
	TotalQueries     int    `json:"total_queries"`
	CompletedQueries int    `json:"completed_queries"`
}

// Searcher runs a single web search. Search failures are recoverable: the
// engine logs them and skips the query rather than aborting the traversal.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Archiver receives every batch of fetched documents, typically to chunk,
// embed and index them. Archive errors never affect the traversal.
type Archiver interface {
	Archive(ctx context.Context, topic string, results []SearchResult) error
}

// dedupe returns items with duplicates removed, keeping the first
// occurrence of each value in its original position.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// concat joins two slices into a freshly allocated slice so recursive
// branches never share backing arrays.
func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
