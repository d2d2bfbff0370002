// Package tools defines the string-in, string-out tools the research agent
// can call, the registry that holds them, and their MCP bridge.
//
// The set of tool kinds is closed: a Tool can only be built by embedding a
// Spec, so every tool carries a Kind from this package.
package tools

import (
	"context"
	"errors"
	"fmt"
)

// Kind groups tools by the collaborator they exercise.
type Kind int

const (
	KindMemory Kind = iota + 1
	KindSearch
	KindEmail
	KindNewsletter
)

func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindSearch:
		return "search"
	case KindEmail:
		return "email"
	case KindNewsletter:
		return "newsletter"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Tool is one named capability. Invoke returns the observation text.
//
// A *Failure error is recoverable: its message is the observation and the
// turn continues. Any other error is an infrastructure failure that aborts
// the turn.
type Tool interface {
	Name() string
	Description() string
	Kind() Kind
	Invoke(ctx context.Context, input string) (string, error)
	sealed()
}

// Spec holds the identity every tool shares. Embed it to implement Tool.
type Spec struct {
	kind Kind
	name string
	desc string
}

// NewSpec returns the identity of a tool.
func NewSpec(kind Kind, name, description string) Spec {
	return Spec{kind: kind, name: name, desc: description}
}

func (s Spec) Name() string        { return s.name }
func (s Spec) Description() string { return s.desc }
func (s Spec) Kind() Kind          { return s.kind }
func (Spec) sealed()               {}

// Func adapts a plain function into a Tool.
type Func struct {
	Spec
	fn func(ctx context.Context, input string) (string, error)
}

// NewFunc builds a Tool around fn.
func NewFunc(spec Spec, fn func(ctx context.Context, input string) (string, error)) *Func {
	return &Func{Spec: spec, fn: fn}
}

// Invoke calls the wrapped function.
func (f *Func) Invoke(ctx context.Context, input string) (string, error) {
	return f.fn(ctx, input)
}

// ─── Failures ────────────────────────────────────────────────────────────────

// Failure is a recoverable tool error. Message is shown to the model as the
// observation.
type Failure struct {
	Message string
	Err     error
}

// Fail wraps err as a recoverable failure with the given observation.
func Fail(message string, err error) *Failure {
	return &Failure{Message: message, Err: err}
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Err }

// Observation splits an Invoke result. It returns the text to show, whether
// the call failed recoverably, and the fatal error if there is one.
func Observation(out string, err error) (text string, failed bool, fatal error) {
	if err == nil {
		return out, false, nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Message, true, nil
	}
	return "", false, err
}
