// Package agent runs the reason-act-observe loop of a research session: it
// asks the model what to do, invokes the chosen tool under the tool-call
// budget and feeds the observation back until a final answer arrives.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HendryAvila/scout/internal/budget"
	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/llm"
	"github.com/HendryAvila/scout/internal/metrics"
	"github.com/HendryAvila/scout/internal/tools"
)

// IterationLimitOutput is the answer when the loop runs out of iterations.
const IterationLimitOutput = "Agent stopped due to iteration limit or time limit."

// Result is the outcome of one turn.
type Result struct {
	TurnID      string    `json:"turn_id"`
	Success     bool      `json:"success"`
	Output      string    `json:"output"`
	ToolCalls   int       `json:"tool_calls"`
	Error       string    `json:"error,omitempty"`
	ErrorType   ErrorKind `json:"error_type,omitempty"`
	Interrupted bool      `json:"interrupted,omitempty"`
	Steps       []Step    `json:"intermediate_steps,omitempty"`
}

// Config holds the collaborators of an orchestrator.
type Config struct {
	LLM      llm.Completer
	Tools    *tools.Registry
	Governor *budget.Governor
	Context  domain.PromptContext
	// History retains earlier turns. nil disables conversation memory.
	History *History
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Orchestrator drives the turns of one session. Turns are serialised.
type Orchestrator struct {
	llm      llm.Completer
	registry *tools.Registry
	governor *budget.Governor
	history  *History
	metrics  *metrics.Collector
	logger   *zap.Logger
	prompt   string
	newID    func() string

	mu sync.Mutex
}

// New creates an Orchestrator. LLM, Tools and Governor are required.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.LLM == nil {
		return nil, errors.New("agent: llm is required")
	}
	if cfg.Tools == nil {
		return nil, errors.New("agent: tool registry is required")
	}
	if cfg.Governor == nil {
		cfg.Governor = budget.New(budget.DefaultMaxCalls)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		llm:      cfg.LLM,
		registry: cfg.Tools,
		governor: cfg.Governor,
		history:  cfg.History,
		metrics:  cfg.Metrics,
		logger:   logger.Named("agent"),
		prompt:   buildPrompt(cfg.Context, cfg.Tools),
		newID:    uuid.NewString,
	}, nil
}

// Governor returns the budget governor of the session.
func (o *Orchestrator) Governor() *budget.Governor { return o.governor }

// Prompt returns the fixed part of the prompt.
func (o *Orchestrator) Prompt() string { return o.prompt }

// ClearMemory drops the conversation history.
func (o *Orchestrator) ClearMemory() {
	if o.history != nil {
		o.history.Clear()
	}
}

// RunAsync runs a turn on its own goroutine. The channel yields exactly one
// Result and is then closed.
func (o *Orchestrator) RunAsync(ctx context.Context, query string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- o.Run(ctx, query)
	}()
	return ch
}

// Run answers query. It never returns an error: failures are classified
// into the Result.
func (o *Orchestrator) Run(ctx context.Context, query string) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	turnID := o.newID()
	log := o.logger.With(zap.String("turn_id", turnID))
	o.governor.Reset()

	res := o.loop(ctx, log, query)
	res.TurnID = turnID
	res.ToolCalls = o.governor.Count()

	outcome := metrics.OutcomeSuccess
	switch {
	case res.Interrupted:
		outcome = metrics.OutcomeInterrupted
	case !res.Success:
		outcome = metrics.OutcomeError
		o.metrics.TurnFailed(string(res.ErrorType))
	case res.Output == IterationLimitOutput:
		outcome = metrics.OutcomeIterations
	}
	o.metrics.TurnFinished(outcome, time.Since(start))

	log.Info("turn finished",
		zap.String("outcome", outcome),
		zap.Int("tool_calls", res.ToolCalls),
		zap.Int("steps", len(res.Steps)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if res.Success && o.history != nil {
		o.history.Add(query, res.Output)
	}
	return res
}

func (o *Orchestrator) loop(ctx context.Context, log *zap.Logger, query string) Result {
	var steps []Step
	maxIterations := o.governor.Max()

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return o.failure(log, err, steps)
		}

		reply, err := o.llm.Complete(ctx, o.request(query, steps))
		if err != nil {
			return o.failure(log, err, steps)
		}

		act, err := parseReply(reply)
		var perr *parseError
		if errors.As(err, &perr) {
			log.Debug("unparseable reply", zap.Int("iteration", iteration), zap.String("observation", perr.Observation))
			steps = append(steps, Step{Log: perr.Output, Tool: "_Exception", Input: perr.Output, Observation: perr.Observation})
			continue
		}

		if act.Final {
			return Result{Success: true, Output: act.Answer, Steps: steps}
		}

		step := Step{Log: act.Log, Tool: act.Tool, Input: act.Input}
		tool, err := o.registry.Get(act.Tool)
		if err != nil {
			step.Observation = fmt.Sprintf("%s is not a valid tool, try one of [%s].", act.Tool, strings.Join(o.registry.Names(), ", "))
			steps = append(steps, step)
			continue
		}

		decision := o.governor.BeforeTool(tool.Name())
		if decision.Stopped() {
			o.metrics.BudgetStopped()
			return o.failure(log, decision.Err(), steps)
		}
		o.metrics.ToolCalled(tool.Name())

		log.Debug("invoking tool",
			zap.Int("iteration", iteration),
			zap.String("tool", tool.Name()),
			zap.Int("count", decision.Count),
		)
		text, failed, fatal := tools.Observation(tool.Invoke(ctx, act.Input))
		if fatal != nil {
			log.Error("tool failed", zap.String("tool", tool.Name()), zap.Error(fatal))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return o.failure(log, ctxErr, steps)
			}
			return o.failure(log, fatal, steps)
		}
		if failed {
			o.governor.ToolError(tool.Name(), errors.New(text))
			o.metrics.ToolFailed(tool.Name())
		}

		step.Observation = text
		steps = append(steps, step)
	}

	log.Warn("iteration limit reached", zap.Int("max_iterations", maxIterations))
	return Result{Success: true, Output: IterationLimitOutput, Steps: steps}
}

func (o *Orchestrator) request(query string, steps []Step) llm.Request {
	var msgs []llm.Message
	if o.history != nil {
		msgs = o.history.Messages()
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: o.prompt + scratchpad(query, steps)})
	return llm.Request{Messages: msgs}
}

func (o *Orchestrator) failure(log *zap.Logger, err error, steps []Step) Result {
	if errors.Is(err, context.Canceled) {
		log.Info("turn interrupted")
		return Result{
			Success:     false,
			Error:       interruptedError,
			Output:      interruptedOutput,
			Interrupted: true,
			Steps:       steps,
		}
	}

	kind, output := classify(err)
	log.Warn("turn failed", zap.String("error_type", string(kind)), zap.Error(err))
	msg := err.Error()
	if kind == ErrorToolLimit {
		msg = limitReason(err)
	}
	return Result{
		Success:   false,
		Error:     msg,
		ErrorType: kind,
		Output:    output,
		Steps:     steps,
	}
}
