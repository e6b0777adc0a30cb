package search

import (
	"fmt"

	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/research"
)

// FromConfig builds the search provider named by SEARCH_PROVIDER.
func FromConfig(cfg *config.Config) (research.Searcher, error) {
	switch cfg.SearchProvider {
	case "", "firecrawl":
		return NewFirecrawl(cfg.FirecrawlKey, cfg.FirecrawlBaseURL), nil
	case "arxiv":
		arxiv := NewArxiv()
		if cfg.MistralKey != "" {
			arxiv.OCR = NewMistralOCR(cfg.MistralKey)
		}
		return arxiv, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.SearchProvider)
	}
}
