// Package budget enforces the per-turn tool-call ceiling of a reasoning
// session.
package budget

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxCalls is the tool-call ceiling when none is configured.
const DefaultMaxCalls = 10

// WarningThreshold is the fraction of the ceiling at which warnings start.
const WarningThreshold = 0.8

// ErrLimitDenied is wrapped by Decision.Err when the user refused to go on.
var ErrLimitDenied = errors.New("tool call limit reached")

// Action is the outcome of a budget check.
type Action int

const (
	// Continue lets the tool call run.
	Continue Action = iota
	// Stop aborts the turn.
	Stop
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is the typed result of Governor.BeforeTool.
type Decision struct {
	Action Action
	Reason string
	Count  int
	Max    int
}

// Stopped reports whether the decision aborts the turn.
func (d Decision) Stopped() bool { return d.Action == Stop }

// Err returns nil for Continue, or an error wrapping ErrLimitDenied.
func (d Decision) Err() error {
	if d.Action != Stop {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrLimitDenied, d.Reason)
}

// PermissionFunc is asked whether to continue once the ceiling is reached.
// It receives the current call count.
type PermissionFunc func(count int) bool

// Event is emitted for every budget observation.
type Event struct {
	Kind  EventKind
	Tool  string
	Count int
	Max   int
	Err   error
}

// EventKind classifies an Event.
type EventKind int

const (
	EventWarning EventKind = iota
	EventLimitReached
	EventDenied
	EventToolError
)

// Governor counts tool invocations within one turn.
type Governor struct {
	mu                sync.Mutex
	max               int
	warnAt            int
	count             int
	permissionGranted bool
	permission        PermissionFunc
	onEvent           func(Event)
	logger            *zap.Logger
}

// Option configures a Governor.
type Option func(*Governor)

// WithPermission registers the callback asked at the ceiling.
func WithPermission(fn PermissionFunc) Option {
	return func(g *Governor) { g.permission = fn }
}

// WithLogger sets the logger for warnings.
func WithLogger(l *zap.Logger) Option {
	return func(g *Governor) { g.logger = l }
}

// WithEventHandler registers a callback for budget events, used by the chat
// front-end for console output and by metrics.
func WithEventHandler(fn func(Event)) Option {
	return func(g *Governor) { g.onEvent = fn }
}

// New creates a Governor. A non-positive max uses DefaultMaxCalls.
func New(max int, opts ...Option) *Governor {
	if max <= 0 {
		max = DefaultMaxCalls
	}
	g := &Governor{
		max:               max,
		warnAt:            int(float64(max) * WarningThreshold),
		permissionGranted: true,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetPermissionCallback replaces the permission callback. nil removes it.
func (g *Governor) SetPermissionCallback(fn PermissionFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.permission = fn
}

// BeforeTool records an invocation of tool and decides whether it may run.
func (g *Governor) BeforeTool(tool string) Decision {
	g.mu.Lock()
	g.count++
	count, max := g.count, g.max
	permission := g.permission
	g.mu.Unlock()

	d := Decision{Action: Continue, Count: count, Max: max}

	if count >= g.warnAt && count < max {
		g.logger.Warn("tool call approaching limit",
			zap.String("tool", tool), zap.Int("count", count), zap.Int("max", max))
		g.emit(Event{Kind: EventWarning, Tool: tool, Count: count, Max: max})
	}

	if count < max {
		return d
	}

	g.logger.Warn("tool call limit reached",
		zap.String("tool", tool), zap.Int("count", count), zap.Int("max", max))
	g.emit(Event{Kind: EventLimitReached, Tool: tool, Count: count, Max: max})

	if permission == nil {
		return d
	}

	granted := permission(count)
	g.mu.Lock()
	g.permissionGranted = granted
	g.mu.Unlock()

	if !granted {
		d.Action = Stop
		d.Reason = fmt.Sprintf("Tool call limit (%d) reached. User denied permission to continue.", max)
		g.emit(Event{Kind: EventDenied, Tool: tool, Count: count, Max: max})
	}
	return d
}

// ToolError records a failed tool call. The counter is not changed.
func (g *Governor) ToolError(tool string, err error) {
	g.logger.Warn("tool error", zap.String("tool", tool), zap.Error(err))
	g.mu.Lock()
	count, max := g.count, g.max
	g.mu.Unlock()
	g.emit(Event{Kind: EventToolError, Tool: tool, Count: count, Max: max, Err: err})
}

// Reset zeroes the counter and restores permission for a new turn.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count = 0
	g.permissionGranted = true
}

// Count returns the invocations recorded in the current turn.
func (g *Governor) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

// Max returns the configured ceiling.
func (g *Governor) Max() int {
	return g.max
}

// LimitReached reports whether the ceiling has been reached this turn.
func (g *Governor) LimitReached() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count >= g.max
}

// PermissionGranted reports the last permission answer of this turn.
func (g *Governor) PermissionGranted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.permissionGranted
}

func (g *Governor) emit(e Event) {
	if g.onEvent != nil {
		g.onEvent(e)
	}
}
