package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/textutil"
)

func newMemoryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the research memory",
	}
	cmd.AddCommand(newMemoryStatsCmd(g), newMemorySearchCmd(g))
	return cmd
}

func newMemoryStatsCmd(g *globalFlags) *cobra.Command {
	var domainName string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show topic totals, globally or for one domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openInspect()
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.memoryService(cmd.Context(), domainName)
			if err != nil {
				return err
			}
			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), g.output, stats, func(w io.Writer) {
				fmt.Fprintf(w, "Total topics:        %d\n", stats.TotalTopics)
				fmt.Fprintf(w, "Mentioned in 7 days: %d\n", stats.RecentTopics)
				fmt.Fprintf(w, "Database:            %s\n", stats.StorageLocation)
			})
		},
	}
	cmd.Flags().StringVar(&domainName, "domain", "", "Only count topics of this domain")
	return cmd
}

func newMemorySearchCmd(g *globalFlags) *cobra.Command {
	var (
		domainName string
		tags       []string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search remembered topics by name or summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openInspect()
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.memoryService(cmd.Context(), domainName)
			if err != nil {
				return err
			}
			opts := memory.SearchOptions{Tags: compact(tags), Limit: limit}
			if len(args) == 1 {
				opts.Query = args[0]
			}
			topics, err := svc.SearchTopics(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), g.output, topics, func(w io.Writer) {
				if len(topics) == 0 {
					fmt.Fprintln(w, "No matching topics.")
					return
				}
				now := svc.Now()
				for _, t := range topics {
					fmt.Fprintf(w, "#%d %s (%d days ago)\n", t.ID, t.Name, memory.DaysSince(now, t.LastMentioned))
					if t.Summary != "" {
						fmt.Fprintf(w, "   %s\n", textutil.Truncate(t.Summary, 120))
					}
					if len(t.Tags) > 0 {
						fmt.Fprintf(w, "   tags: %s\n", strings.Join(t.Tags, ", "))
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&domainName, "domain", "", "Only search this domain")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Require any of these tags")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results")
	return cmd
}

// memoryService scopes a service to an existing domain, or the global view
// when name is empty. Inspection never creates domains.
func (a *app) memoryService(ctx context.Context, name string) (*memory.Service, error) {
	if name == "" {
		return memory.NewService(a.store, nil), nil
	}
	d, err := a.store.FindDomainByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("domain %q not found", name)
	}
	return memory.NewService(a.store, &d.ID), nil
}
