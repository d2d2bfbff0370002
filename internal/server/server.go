// Package server is the composition root: it builds research sessions for
// the chat front-end and the MCP server for `scout serve`.
//
// No business logic lives here, only wiring.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/metrics"
	"github.com/HendryAvila/scout/internal/prompts"
	"github.com/HendryAvila/scout/internal/resources"
	"github.com/HendryAvila/scout/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewMCP creates the MCP server exposing every tool of deps scoped to
// scope, plus the research prompts and read-only resources.
func NewMCP(deps Deps, scope domain.Scope) (*server.MCPServer, error) {
	if deps.Store == nil {
		return nil, errors.New("server: memory store is required")
	}

	svc := memory.NewService(deps.Store, scope.DomainID())
	reg, err := BuildRegistry(deps, svc)
	if err != nil {
		return nil, err
	}

	s := server.NewMCPServer(
		"scout",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions(scope)),
	)

	// --- Tools ---

	for _, t := range reg.List() {
		s.AddTool(tools.Definition(t), tools.Handler(t))
	}

	// --- Prompts ---

	start := prompts.NewResearchStartPrompt(scope.Name)
	s.AddPrompt(start.Definition(), start.Handle)

	digest := prompts.NewNewsletterPrompt(reg.Has("send_research_newsletter"))
	s.AddPrompt(digest.Definition(), digest.Handle)

	// --- Resources ---

	h := resources.NewHandler(svc, deps.Domains)
	s.AddResource(h.StatsResource(), h.HandleStats)
	if deps.Domains != nil {
		s.AddResource(h.DomainsResource(), h.HandleDomains)
	}

	deps.logger().Info("mcp server ready",
		zap.String("domain", scope.Name),
		zap.Strings("tools", reg.Names()),
	)
	return s, nil
}

// ServeOptions configures Serve.
type ServeOptions struct {
	Stdin  io.Reader
	Stdout io.Writer
	// MetricsAddr enables the /metrics endpoint when set.
	MetricsAddr string
	Metrics     *metrics.Collector
	Logger      *zap.Logger
}

// Serve runs the MCP stdio server until ctx is done, stdin closes or the
// process receives SIGINT/SIGTERM. The metrics endpoint, when enabled, runs
// alongside and stops with it.
func Serve(ctx context.Context, s *server.MCPServer, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stdio := server.NewStdioServer(s)
		stdio.SetErrorLogger(zap.NewStdLog(logger.Named("stdio")))
		err := stdio.Listen(ctx, opts.Stdin, opts.Stdout)
		stop()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			return fmt.Errorf("server: stdio: %w", err)
		}
		return nil
	})

	if opts.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, opts.MetricsAddr, opts.Metrics, logger)
		})
	}

	return g.Wait()
}

// serverInstructions tells the host how to use Scout.
func serverInstructions(scope domain.Scope) string {
	name := scope.Name
	if name == "" {
		name = "all domains"
	}
	return `You have access to Scout, a research assistant with a persistent memory.

Current research domain: ` + name + `

## WORKFLOW
1. BEFORE researching a topic, call check_memory or check_novelty.
   Skip topics mentioned in the last 7 days unless the user asks for them.
2. Research with search_web, search_github, search_arxiv and search_news.
3. AFTER researching, ALWAYS call save_to_memory with the topic, a summary,
   the source URLs and a few tags.
4. Use search_memory and memory_stats to answer questions about past research.

## NEWSLETTERS
- send_research_newsletter takes the number of topics and does everything.
- Or call get_newsletter_findings and pass its JSON to send_newsletter.
- send_email sends a short plain-text update.

Every tool takes a single string argument named "input".`
}
