package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/tools"
)

// CheckMemoryTool handles the check_memory tool.
type CheckMemoryTool struct {
	tools.Spec
	svc *memory.Service
}

// NewCheckMemoryTool creates a CheckMemoryTool.
func NewCheckMemoryTool(svc *memory.Service) *CheckMemoryTool {
	return &CheckMemoryTool{
		Spec: tools.NewSpec(tools.KindMemory, "check_memory",
			"Check if a topic has been researched before. "+
				"Use this BEFORE researching a new topic to avoid repetition. "+
				"Input should be the topic name or query string. "+
				"Returns information about previous research including summary, sources, and when it was last mentioned."),
		svc: svc,
	}
}

// Invoke looks the topic up by exact name, then by fuzzy search.
func (t *CheckMemoryTool) Invoke(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)

	topic, err := t.svc.GetTopicByName(ctx, query, true)
	if err != nil {
		return "", fmt.Errorf("check_memory: %w", err)
	}
	if topic != nil {
		return describeTopic(t.svc, topic), nil
	}

	related, err := t.svc.SearchTopics(ctx, memory.SearchOptions{Query: query, Limit: fuzzyCandidates})
	if err != nil {
		return "", fmt.Errorf("check_memory: %w", err)
	}
	if len(related) == 0 {
		return fmt.Sprintf("✗ No information found about '%s' in memory. This appears to be a novel topic.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "No exact match for '%s', but found %d related topics:\n\n", query, len(related))
	for i, r := range related {
		fmt.Fprintf(&b, "%d. %s (last mentioned: %d days ago)\n", i+1, r.Name, daysAgo(t.svc, r.LastMentioned))
	}
	return b.String(), nil
}

func describeTopic(svc *memory.Service, topic *memory.Topic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Topic '%s' was researched before.\n", topic.Name)
	fmt.Fprintf(&b, "Last mentioned: %d days ago\n", daysAgo(svc, topic.LastMentioned))

	if topic.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", topic.Summary)
	}
	if n := len(topic.Sources); n > 0 {
		shown := topic.Sources
		if n > 3 {
			shown = shown[:3]
		}
		fmt.Fprintf(&b, "Sources (%d): %s", n, strings.Join(shown, ", "))
		if n > 3 {
			fmt.Fprintf(&b, " and %d more", n-3)
		}
		b.WriteString("\n")
	}
	if len(topic.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(topic.Tags, ", "))
	}
	return b.String()
}

// ─── CheckNoveltyTool ───────────────────────────────────────────────────────

// CheckNoveltyTool handles the check_novelty tool.
type CheckNoveltyTool struct {
	tools.Spec
	svc *memory.Service
}

// NewCheckNoveltyTool creates a CheckNoveltyTool.
func NewCheckNoveltyTool(svc *memory.Service) *CheckNoveltyTool {
	return &CheckNoveltyTool{
		Spec: tools.NewSpec(tools.KindMemory, "check_novelty",
			"Check if a topic is novel (not researched in the last 7 days). "+
				"Use this to determine if you should provide information about a topic. "+
				"Input should be the topic name. "+
				"Returns whether the topic is novel or has been recently covered."),
		svc: svc,
	}
}

// Invoke reports whether the topic falls outside the novelty window.
func (t *CheckNoveltyTool) Invoke(ctx context.Context, input string) (string, error) {
	name := strings.TrimSpace(input)

	novel, err := t.svc.IsNovel(ctx, name, memory.DefaultNoveltyDays)
	if err != nil {
		return "", fmt.Errorf("check_novelty: %w", err)
	}
	topic, err := t.svc.GetTopicByName(ctx, name, false)
	if err != nil {
		return "", fmt.Errorf("check_novelty: %w", err)
	}

	switch {
	case novel && topic == nil:
		return fmt.Sprintf("✓ Topic '%s' is NOVEL - never researched before.\n"+
			"Feel free to research and share information about it.", name), nil
	case novel:
		return fmt.Sprintf("✓ Topic '%s' is considered NOVEL.\n"+
			"Last researched %d days ago (threshold: %d days).\n"+
			"You can provide new information about this topic.",
			name, daysAgo(t.svc, topic.LastMentioned), memory.DefaultNoveltyDays), nil
	case topic == nil:
		// Deleted between the two lookups.
		return fmt.Sprintf("✓ Topic '%s' is NOVEL - never researched before.\n"+
			"Feel free to research and share information about it.", name), nil
	default:
		return fmt.Sprintf("✗ Topic '%s' is NOT novel.\n"+
			"Last mentioned %d days ago (threshold: %d days).\n"+
			"Avoid repeating the same information unless specifically requested.",
			name, daysAgo(t.svc, topic.LastMentioned), memory.DefaultNoveltyDays), nil
	}
}
