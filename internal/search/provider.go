// Package search provides the web search collaborators behind the search
// tools: Tavily, and DuckDuckGo as a keyless fallback.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Topics understood by providers.
const (
	TopicGeneral = "general"
	TopicNews    = "news"
)

// DefaultMaxResults is the result count requested by the search tools.
const DefaultMaxResults = 5

// ErrMissingAPIKey is returned when a keyed provider is built without a key.
var ErrMissingAPIKey = errors.New("search: api key is required")

// Query describes one search request.
type Query struct {
	Text       string
	MaxResults int
	// Topic is TopicGeneral or TopicNews.
	Topic string
	// Days limits news results to the last N days. Zero means no limit.
	Days int
}

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Provider runs web searches.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Result, error)
}

// Config selects and configures a provider.
type Config struct {
	// Provider is "tavily" or "duckduckgo".
	Provider     string
	TavilyAPIKey string
	// RateLimit is the allowed requests per second. Zero uses the default.
	RateLimit float64
}

// New builds the configured provider.
func New(cfg Config, opts ...Option) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "tavily":
		return NewTavily(cfg.TavilyAPIKey, append([]Option{WithRateLimit(cfg.RateLimit)}, opts...)...)
	case "duckduckgo", "ddg":
		return NewDuckDuckGo(append([]Option{WithRateLimit(cfg.RateLimit)}, opts...)...), nil
	default:
		return nil, fmt.Errorf("search: unknown provider %q", cfg.Provider)
	}
}

func (q Query) maxResults() int {
	if q.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return q.MaxResults
}
