package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/logging"
)

func newDomainsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "Inspect and manage research domains",
	}
	cmd.AddCommand(
		newDomainsListCmd(g),
		newDomainsStatsCmd(g),
		newDomainsCreateCmd(g),
		newDomainsDeleteCmd(g),
	)
	return cmd
}

func newDomainsListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored domains, most recently used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openInspect()
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.domains.ListDomains(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), g.output, list, func(w io.Writer) {
				if len(list) == 0 {
					fmt.Fprintln(w, "No domains yet.")
					return
				}
				for _, d := range list {
					fmt.Fprintf(w, "%-24s last used %s\n", d.Name, d.LastUsed.Format("2006-01-02 15:04"))
					if d.Description != "" {
						fmt.Fprintf(w, "  %s\n", d.Description)
					}
				}
			})
		},
	}
}

func newDomainsStatsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats NAME",
		Short: "Show topic counts and recent topics of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openInspect()
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.domains.GetDomainStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), g.output, stats, func(w io.Writer) {
				if !stats.Exists {
					fmt.Fprintf(w, "Domain %q has no data yet.\n", stats.Name)
					return
				}
				fmt.Fprintf(w, "Domain:      %s\n", stats.Name)
				if stats.Description != "" {
					fmt.Fprintf(w, "Description: %s\n", stats.Description)
				}
				if len(stats.Keywords) > 0 {
					fmt.Fprintf(w, "Keywords:    %s\n", strings.Join(stats.Keywords, ", "))
				}
				fmt.Fprintf(w, "Topics:      %d\n", stats.TopicCount)
				for _, t := range stats.RecentTopics {
					fmt.Fprintf(w, "  - %s\n", t)
				}
			})
		},
	}
}

func newDomainsCreateCmd(g *globalFlags) *cobra.Command {
	var (
		description string
		keywords    []string
	)
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a custom research domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openInspect()
			if err != nil {
				return err
			}
			defer a.Close()

			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("domain name must not be empty")
			}
			if description == "" {
				description = "Custom research domain: " + name
			}
			d, err := a.domains.CreateCustomDomain(cmd.Context(), name, description, compact(keywords))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), g.output, d, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Created domain %q (id %d)\n", d.Name, d.ID)
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Domain description")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Comma-separated keywords")
	return cmd
}

func newDomainsDeleteCmd(g *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a domain and every topic researched in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openInspect()
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, err := a.domains.DeleteDomain(cmd.Context(), args[0], yes)
			if errors.Is(err, domain.ErrConfirmationRequired) {
				return fmt.Errorf("refusing to delete %q and its topics without --yes", args[0])
			}
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("domain %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted domain %q\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

// openInspect opens the store for commands that never reach the LLM or the
// search provider, so API keys are not required.
func (g *globalFlags) openInspect() (*app, error) {
	cfg, err := g.loadConfig(false)
	if err != nil {
		return nil, err
	}
	return openApp(cfg, logging.SinkDiscard)
}

func compact(items []string) []string {
	out := []string{}
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
