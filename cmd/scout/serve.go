package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/llm"
	"github.com/HendryAvila/scout/internal/logging"
	"github.com/HendryAvila/scout/internal/server"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var domainName string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the research tools over MCP on stdio",
		Long: `Serve exposes the search, memory and newsletter tools to an MCP client
(Claude Desktop, Cursor, ...) over stdin/stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g, domainName)
		},
	}
	cmd.Flags().StringVar(&domainName, "domain", "", "Research domain the tools are scoped to (default: RESEARCH_TOPIC or "+domain.DefaultDomainKey+")")
	return cmd
}

func runServe(ctx context.Context, g *globalFlags, domainName string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := g.loadConfig(true)
	if err != nil {
		return err
	}
	a, err := openApp(cfg, logging.SinkStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	client := llm.NewOpenAI(cfg.LLM(), a.logger)
	// No one to ask over stdio, so a matched domain is never reused.
	a.useMatcher(client, nil)

	if domainName == "" {
		domainName = cfg.ResearchTopic
	}
	if domainName == "" {
		domainName = domain.DefaultDomainKey
	}
	scope, err := a.domains.SetCurrentDomain(ctx, domainName)
	if err != nil {
		return fmt.Errorf("selecting domain %q: %w", domainName, err)
	}

	deps, err := a.researchDeps(client)
	if err != nil {
		return err
	}
	s, err := server.NewMCP(deps, scope)
	if err != nil {
		return err
	}

	a.logger.Info("serving mcp", zap.String("domain", scope.Name), zap.Int64("domain_id", scope.ID))
	return server.Serve(ctx, s, server.ServeOptions{
		MetricsAddr: cfg.MetricsAddr,
		Metrics:     deps.Metrics,
		Logger:      a.logger,
	})
}
