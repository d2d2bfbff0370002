// Package metrics exposes Prometheus counters for research turns, tool calls
// and budget stops, and the /metrics HTTP endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "scout"

// Turn outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeInterrupted = "interrupted"
	OutcomeIterations  = "iteration_limit"
)

// Collector holds the Prometheus metrics of one process. All methods are
// safe on a nil *Collector, which records nothing.
type Collector struct {
	registry *prometheus.Registry

	Turns        *prometheus.CounterVec
	TurnDuration prometheus.Histogram
	ToolCalls    *prometheus.CounterVec
	ToolErrors   *prometheus.CounterVec
	BudgetStops  prometheus.Counter
	TurnErrors   *prometheus.CounterVec
}

// New creates a collector on its own registry, including Go runtime metrics.
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Research turns by outcome",
			},
			[]string{"outcome"},
		),
		TurnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Wall time of a research turn",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Tool invocations by tool",
			},
			[]string{"tool"},
		),
		ToolErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_errors_total",
				Help:      "Recoverable tool failures by tool",
			},
			[]string{"tool"},
		),
		BudgetStops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "budget_stops_total",
				Help:      "Turns stopped because continuation past the tool-call limit was denied",
			},
		),
		TurnErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turn_errors_total",
				Help:      "Failed turns by error kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		c.Turns,
		c.TurnDuration,
		c.ToolCalls,
		c.ToolErrors,
		c.BudgetStops,
		c.TurnErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// TurnFinished records a finished turn.
func (c *Collector) TurnFinished(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Turns.WithLabelValues(outcome).Inc()
	c.TurnDuration.Observe(d.Seconds())
}

// TurnFailed records the error kind of a failed turn.
func (c *Collector) TurnFailed(kind string) {
	if c == nil {
		return
	}
	c.TurnErrors.WithLabelValues(kind).Inc()
}

// ToolCalled records a tool invocation.
func (c *Collector) ToolCalled(tool string) {
	if c == nil {
		return
	}
	c.ToolCalls.WithLabelValues(tool).Inc()
}

// ToolFailed records a recoverable tool failure.
func (c *Collector) ToolFailed(tool string) {
	if c == nil {
		return
	}
	c.ToolErrors.WithLabelValues(tool).Inc()
}

// BudgetStopped records a denied continuation.
func (c *Collector) BudgetStopped() {
	if c == nil {
		return
	}
	c.BudgetStops.Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Serve runs the /metrics endpoint on addr until ctx is done.
func Serve(ctx context.Context, addr string, c *Collector, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
