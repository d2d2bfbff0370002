package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/scout/internal/cli"
	"github.com/HendryAvila/scout/internal/llm"
	"github.com/HendryAvila/scout/internal/logging"
	"github.com/HendryAvila/scout/internal/server"
	"github.com/HendryAvila/scout/internal/tools"
)

func newChatCmd(g *globalFlags) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive research chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), g, topic)
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "Research domain to use instead of the menu (overrides RESEARCH_TOPIC)")
	return cmd
}

func runChat(ctx context.Context, g *globalFlags, topic string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := g.loadConfig(true)
	if err != nil {
		return err
	}
	a, err := openApp(cfg, logging.SinkDiscard)
	if err != nil {
		return err
	}
	defer a.Close()

	console := cli.NewConsole(os.Stdin, os.Stdout)
	client := llm.NewOpenAI(cfg.LLM(), a.logger)
	a.useMatcher(client, console.ConfirmReuse)

	console.Println("\n🔧 Initializing agent...")

	if topic == "" {
		topic = cfg.ResearchTopic
	}
	scope, err := cli.SelectDomain(ctx, console, a.domains, topic)
	if err != nil {
		return err
	}
	stats, err := a.domains.GetDomainStats(ctx, scope.Name)
	if err != nil {
		return err
	}
	cli.ShowDomainStats(console, stats)

	deps, err := a.researchDeps(client)
	if err != nil {
		return err
	}
	deps.Permission = console.Permission
	deps.BudgetEvents = console.BudgetEvent

	sess, err := server.NewSession(ctx, deps, scope)
	if err != nil {
		return err
	}
	reportTools(console, sess.Tools)
	console.Success("  ✓ Agent initialized successfully")
	console.Printf("\n🚀 Starting CLI interface...\n\n")

	a.serveMetrics(ctx, deps.Metrics)

	return cli.NewREPL(console, sess.Agent,
		cli.WithDomain(scope.Name),
		cli.WithInterruptTrap(),
	).Run(ctx)
}

func reportTools(c *cli.Console, reg *tools.Registry) {
	c.Printf("  ✓ Loaded %d search tools\n", len(reg.ByKind(tools.KindSearch)))
	c.Printf("  ✓ Loaded %d email tools\n", len(reg.ByKind(tools.KindEmail))+len(reg.ByKind(tools.KindNewsletter)))
	c.Printf("  ✓ Loaded %d memory tools\n", len(reg.ByKind(tools.KindMemory)))
	c.Printf("  ✓ Total tools available: %d\n", reg.Count())
}
