package search

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRateLimit = 2.0 // requests per second
	defaultTimeout   = 30 * time.Second
)

type options struct {
	baseURL    string
	rateLimit  float64
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a provider.
type Option func(*options)

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithRateLimit sets the allowed requests per second. Non-positive values
// keep the default.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		if rps > 0 {
			o.rateLimit = rps
		}
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger sets the provider logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(defaultBaseURL string, opts []Option) options {
	o := options{
		baseURL:   defaultBaseURL,
		rateLimit: defaultRateLimit,
		timeout:   defaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{
			Timeout: o.timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return o
}
