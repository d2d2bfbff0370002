package server

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/scout/internal/agent"
	"github.com/HendryAvila/scout/internal/budget"
	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/llm"
	"github.com/HendryAvila/scout/internal/mail"
	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/memtools"
	"github.com/HendryAvila/scout/internal/metrics"
	"github.com/HendryAvila/scout/internal/newsletter"
	"github.com/HendryAvila/scout/internal/search"
	"github.com/HendryAvila/scout/internal/tools"
)

// historyTurns bounds the conversation memory of a chat session.
const historyTurns = 20

// Deps are the process-wide collaborators shared by every session.
type Deps struct {
	Store    *memory.Store
	Domains  *domain.Manager
	LLM      llm.Completer
	Search   search.Provider
	Mail     mail.Sender
	Renderer *newsletter.Renderer

	Newsletter   tools.NewsletterConfig
	MaxToolCalls int
	// Permission is asked when the tool-call limit is reached. nil keeps
	// going after logging.
	Permission budget.PermissionFunc
	// BudgetEvents receives governor events, for console output.
	BudgetEvents func(budget.Event)

	Metrics *metrics.Collector
	Logger  *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Session is one research conversation bound to a domain.
type Session struct {
	Scope    domain.Scope
	Context  domain.PromptContext
	Memory   *memory.Service
	Tools    *tools.Registry
	Governor *budget.Governor
	Agent    *agent.Orchestrator
}

// NewSession builds the tools, governor and orchestrator for scope. A new
// session must be built to change the domain.
func NewSession(ctx context.Context, deps Deps, scope domain.Scope) (*Session, error) {
	if deps.Store == nil {
		return nil, errors.New("server: memory store is required")
	}
	if deps.LLM == nil {
		return nil, errors.New("server: llm is required")
	}

	svc := memory.NewService(deps.Store, scope.DomainID())
	reg, err := BuildRegistry(deps, svc)
	if err != nil {
		return nil, err
	}

	pc := domain.PromptContext{}
	if deps.Domains != nil {
		pc, err = deps.Domains.PromptContext(ctx, scope.Name)
		if err != nil {
			return nil, fmt.Errorf("server: prompt context: %w", err)
		}
	}

	log := deps.logger()
	if !scope.IsZero() {
		log = log.With(zap.String("domain", scope.Name))
	}

	max := deps.MaxToolCalls
	if max <= 0 {
		max = budget.DefaultMaxCalls
	}
	opts := []budget.Option{budget.WithLogger(log)}
	if deps.Permission != nil {
		opts = append(opts, budget.WithPermission(deps.Permission))
	}
	if deps.BudgetEvents != nil {
		opts = append(opts, budget.WithEventHandler(deps.BudgetEvents))
	}
	gov := budget.New(max, opts...)

	orch, err := agent.New(agent.Config{
		LLM:      deps.LLM,
		Tools:    reg,
		Governor: gov,
		Context:  pc,
		History:  agent.NewHistory(historyTurns),
		Metrics:  deps.Metrics,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	log.Info("session ready",
		zap.Int("tools", reg.Count()),
		zap.Int("max_tool_calls", max),
	)
	return &Session{
		Scope:    scope,
		Context:  pc,
		Memory:   svc,
		Tools:    reg,
		Governor: gov,
		Agent:    orch,
	}, nil
}

// BuildRegistry registers every tool available with deps over svc: search
// tools when a provider is set, email and newsletter tools when a sender is
// set, and the memory tools.
func BuildRegistry(deps Deps, svc *memory.Service) (*tools.Registry, error) {
	reg := tools.NewRegistry()

	if deps.Search != nil {
		if err := reg.Register(tools.SearchTools(deps.Search)...); err != nil {
			return nil, fmt.Errorf("server: register search tools: %w", err)
		}
	}

	var send *tools.SendNewsletterTool
	if deps.Mail != nil {
		renderer := deps.Renderer
		if renderer == nil {
			r, err := newsletter.NewRenderer()
			if err != nil {
				return nil, fmt.Errorf("server: %w", err)
			}
			renderer = r
		}
		send = tools.NewSendNewsletterTool(deps.Mail, renderer, deps.Newsletter)
		if err := reg.Register(send, tools.NewSendEmailTool(deps.Mail)); err != nil {
			return nil, fmt.Errorf("server: register email tools: %w", err)
		}
	}

	if err := reg.Register(memtools.All(svc)...); err != nil {
		return nil, fmt.Errorf("server: register memory tools: %w", err)
	}
	if send != nil {
		findings := memtools.NewFindingsTool(svc)
		if err := reg.Register(memtools.NewResearchNewsletterTool(findings, send)); err != nil {
			return nil, fmt.Errorf("server: register newsletter tool: %w", err)
		}
	}
	return reg, nil
}
