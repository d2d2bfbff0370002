package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HendryAvila/scout/internal/breaker"
)

const tavilyBaseURL = "https://api.tavily.com"

// Tavily searches through the Tavily search API.
type Tavily struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewTavily creates a Tavily provider.
func NewTavily(apiKey string, opts ...Option) (*Tavily, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: TAVILY_API_KEY not found in configuration", ErrMissingAPIKey)
	}
	o := buildOptions(tavilyBaseURL, opts)
	return &Tavily{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(o.baseURL, "/"),
		httpClient: o.httpClient,
		limiter:    rate.NewLimiter(rate.Limit(o.rateLimit), 1),
		breaker:    breaker.New(breaker.DefaultConfig("tavily"), o.logger),
		logger:     o.logger.Named("tavily"),
	}, nil
}

// Name returns the provider name.
func (t *Tavily) Name() string { return "tavily" }

type tavilyRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
	Topic       string `json:"topic,omitempty"`
	Days        int    `json:"days,omitempty"`
}

// Search runs an advanced-depth search.
func (t *Tavily) Search(ctx context.Context, q Query) ([]Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(tavilyRequest{
		Query:       q.Text,
		SearchDepth: "advanced",
		MaxResults:  q.maxResults(),
		Topic:       q.Topic,
		Days:        q.Days,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	out, err := t.breaker.Execute(func() (interface{}, error) {
		return t.do(ctx, body)
	})
	if err != nil {
		t.logger.Warn("search failed", zap.String("query", q.Text), zap.Error(err))
		return nil, err
	}
	return parseTavily(out.([]byte), q.maxResults()), nil
}

func (t *Tavily) do(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(raw, "detail.error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("tavily API error %d: %s", resp.StatusCode, msg)
	}
	return raw, nil
}

func parseTavily(raw []byte, max int) []Result {
	var results []Result
	gjson.GetBytes(raw, "results").ForEach(func(_, v gjson.Result) bool {
		results = append(results, Result{
			Title:   v.Get("title").String(),
			URL:     v.Get("url").String(),
			Content: v.Get("content").String(),
		})
		return len(results) < max
	})
	return results
}
