package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/HendryAvila/scout/internal/breaker"
)

// Config holds the settings of an OpenAI-compatible chat endpoint.
// OpenRouter is reached by setting BaseURL.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	// MaxRetries is the number of automatic retries; negative keeps the
	// client default.
	MaxRetries int
}

// OpenAIClient is a Completer backed by the chat completions API.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	breaker     *gobreaker.CircuitBreaker
	logger      *zap.Logger
}

// NewOpenAI creates a chat completion client.
func NewOpenAI(cfg Config, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		breaker:     breaker.New(breaker.DefaultConfig("llm"), logger),
		logger:      logger.Named("llm"),
	}
}

// Complete sends req and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: openai.Float(temperature),
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyCompletion
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		c.logger.Warn("completion failed",
			zap.String("model", c.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", describeError(err)
	}

	c.logger.Debug("completion finished",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out.(string), nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// describeError rewrites API status failures so that the orchestrator's
// substring classification recognises them.
func describeError(err error) error {
	if breaker.IsOpen(err) {
		return fmt.Errorf("llm: service unavailable, circuit open: %w", err)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("llm: rate limit exceeded: %w", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("llm: authentication failed, invalid api key: %w", err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("llm: request timeout: %w", err)
		}
	}
	return fmt.Errorf("llm: %w", err)
}
