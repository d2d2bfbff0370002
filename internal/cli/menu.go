package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/scout/internal/domain"
)

// menuChoices maps the menu numbers to preset keys.
var menuChoices = map[string]string{
	"1": "ai-ml",
	"2": "cryptocurrency",
	"3": "web3",
	"4": "quantum-computing",
}

const customChoice = "5"

const domainMenu = `
============================================================
     Research Assistant - Topic Selection
============================================================

What would you like to research?

  1. AI/ML Development (default)
  2. Cryptocurrency & Blockchain
  3. Web3 & Decentralized Tech
  4. Quantum Computing
  5. Custom topic (you specify)

`

// DomainSelector makes a menu choice the current domain. Custom entries are
// resolved with duplicate detection before anything is created.
type DomainSelector interface {
	SetCurrentDomain(ctx context.Context, name string) (domain.Scope, error)
	SetCurrentCustomDomain(ctx context.Context, c domain.Custom) (domain.Scope, bool, error)
}

// SelectDomain sets the domain to research: configured when set, otherwise
// the user's menu choice. A custom choice carries its description and
// keywords, used only when the domain ends up being created. Read errors,
// including io.EOF, end the selection.
func SelectDomain(ctx context.Context, c *Console, sel DomainSelector, configured string) (domain.Scope, error) {
	if configured = strings.TrimSpace(configured); configured != "" {
		c.Success("\n✓ Using configured topic: " + configured)
		return setDomain(ctx, sel, configured)
	}

	c.Printf("%s", domainMenu)
	for {
		choice, err := c.ReadLine("Your choice (1-5): ")
		if err != nil {
			return domain.Scope{}, err
		}
		choice = strings.TrimSpace(choice)

		if key, ok := menuChoices[choice]; ok {
			c.Success(fmt.Sprintf("\n✓ Selected topic: %s\n", key))
			return setDomain(ctx, sel, key)
		}
		if choice != customChoice {
			c.Println("Invalid choice. Please enter 1-5.")
			continue
		}

		custom, err := readCustom(c)
		if err != nil {
			return domain.Scope{}, err
		}
		if custom.Name == "" {
			c.Println("Please enter a topic name.")
			continue
		}

		scope, created, err := sel.SetCurrentCustomDomain(ctx, custom)
		if err != nil {
			return domain.Scope{}, fmt.Errorf("selecting domain %q: %w", custom.Name, err)
		}
		if created {
			c.Success("\n✓ Created custom topic: " + scope.Name)
		} else {
			c.Success("\n✓ Using existing topic: " + scope.Name)
		}
		c.Success(fmt.Sprintf("\n✓ Selected topic: %s\n", scope.Name))
		return scope, nil
	}
}

func setDomain(ctx context.Context, sel DomainSelector, name string) (domain.Scope, error) {
	scope, err := sel.SetCurrentDomain(ctx, name)
	if err != nil {
		return domain.Scope{}, fmt.Errorf("selecting domain %q: %w", name, err)
	}
	return scope, nil
}

func readCustom(c *Console) (domain.Custom, error) {
	name, err := c.ReadLine("\nEnter your custom topic name: ")
	if err != nil {
		return domain.Custom{}, err
	}
	if name = strings.TrimSpace(name); name == "" {
		return domain.Custom{}, nil
	}
	description, err := c.ReadLine("Brief description (optional): ")
	if err != nil {
		return domain.Custom{}, err
	}
	rawKeywords, err := c.ReadLine("Keywords (comma-separated, optional): ")
	if err != nil {
		return domain.Custom{}, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = "Custom research domain: " + name
	}
	keywords := []string{}
	for _, k := range strings.Split(rawKeywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return domain.Custom{Name: name, Description: description, Keywords: keywords}, nil
}

// ShowDomainStats prints the summary of the selected domain.
func ShowDomainStats(c *Console, s domain.Stats) {
	if !s.Exists {
		c.Success("✓ New research domain - no previous data")
		return
	}
	c.Success("✓ Domain: " + s.Name)
	if s.Description != "" {
		c.Printf("  Description: %s\n", s.Description)
	}
	c.Printf("  Topics researched: %d\n", s.TopicCount)
	if len(s.RecentTopics) > 0 {
		shown := s.RecentTopics
		if len(shown) > 3 {
			shown = shown[:3]
		}
		c.Printf("  Recent topics: %s\n", strings.Join(shown, ", "))
		if extra := len(s.RecentTopics) - 3; extra > 0 {
			c.Printf("                 ...and %d more\n", extra)
		}
	}
	c.Println()
}
