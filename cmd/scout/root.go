package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/scout/internal/config"
	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/llm"
	"github.com/HendryAvila/scout/internal/logging"
	"github.com/HendryAvila/scout/internal/mail"
	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/metrics"
	"github.com/HendryAvila/scout/internal/newsletter"
	"github.com/HendryAvila/scout/internal/search"
	"github.com/HendryAvila/scout/internal/server"
	"github.com/HendryAvila/scout/internal/tools"
)

// configError marks failures that come from loading or validating settings.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
	output     string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "scout",
		Short: "Scout - research assistant with a memory",
		Long: `Scout researches what's new in a domain (AI/ML, cryptocurrency, web3,
quantum computing or your own), remembers what it already told you so it
never repeats itself within a week, and emails newsletter digests.

Without a subcommand Scout starts the interactive chat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", "", "YAML config file (default: ./scout.yaml when present)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file to load")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "text", "Output format for inspection commands: text, json or yaml")

	chat := newChatCmd(g)
	root.RunE = chat.RunE
	root.Flags().AddFlagSet(chat.Flags())

	root.AddCommand(
		chat,
		newServeCmd(g),
		newDomainsCmd(g),
		newMemoryCmd(g),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scout v%s\n", server.Version)
		},
	}
}

// loadConfig reads settings; validate also checks the API keys needed to
// research.
func (g *globalFlags) loadConfig(validate bool) (*config.Config, error) {
	opts := config.DefaultOptions()
	opts.EnvFile = g.envFile
	if g.configFile != "" {
		opts.ConfigFile = g.configFile
	}
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, &configError{err: err}
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, &configError{err: err}
		}
	}
	return cfg, nil
}

// app holds the process-wide collaborators of one command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *memory.Store
	domains *domain.Manager
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// openApp opens the logger and the memory store.
func openApp(cfg *config.Config, sink logging.Sink) (*app, error) {
	logger, closeLog := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		Sink:  sink,
	})
	a := &app{cfg: cfg, logger: logger, closers: []func() error{closeLog}}

	store, err := memory.New(cfg.Memory())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	a.domains = domain.NewManager(store, domain.WithLogger(logger))
	return a, nil
}

// useMatcher replaces the domain manager with one that detects duplicate
// custom domains through c, asking confirm before reusing one.
func (a *app) useMatcher(c llm.Completer, confirm domain.ReuseConfirmer) {
	opts := []domain.Option{
		domain.WithLogger(a.logger),
		domain.WithMatcher(domain.NewLLMMatcher(c)),
	}
	if confirm != nil {
		opts = append(opts, domain.WithReuseConfirmer(confirm))
	}
	a.domains = domain.NewManager(a.store, opts...)
}

// researchDeps builds the LLM, search, mail and newsletter collaborators.
func (a *app) researchDeps(completer llm.Completer) (server.Deps, error) {
	provider, err := search.New(a.cfg.Search(), search.WithLogger(a.logger))
	if err != nil {
		return server.Deps{}, &configError{err: err}
	}
	renderer, err := newsletter.NewRenderer()
	if err != nil {
		return server.Deps{}, err
	}
	format, subject := a.cfg.Newsletter()

	deps := server.Deps{
		Store:        a.store,
		Domains:      a.domains,
		LLM:          completer,
		Search:       provider,
		Mail:         mail.NewClient(a.cfg.Mail(), a.logger),
		Renderer:     renderer,
		Newsletter:   tools.NewsletterConfig{Format: format, Subject: subject},
		MaxToolCalls: a.cfg.MaxToolCalls,
		Logger:       a.logger,
	}
	if a.cfg.MetricsAddr != "" {
		deps.Metrics = metrics.New()
	}
	return deps, nil
}

// serveMetrics runs the metrics endpoint in the background until ctx is
// done.
func (a *app) serveMetrics(ctx context.Context, c *metrics.Collector) {
	if a.cfg.MetricsAddr == "" || c == nil {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, a.cfg.MetricsAddr, c, a.logger); err != nil {
			a.logger.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()
}
