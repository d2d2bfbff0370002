package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/textutil"
	"github.com/HendryAvila/scout/internal/tools"
)

// SearchMemoryTool handles the search_memory tool.
type SearchMemoryTool struct {
	tools.Spec
	svc *memory.Service
}

// NewSearchMemoryTool creates a SearchMemoryTool.
func NewSearchMemoryTool(svc *memory.Service) *SearchMemoryTool {
	return &SearchMemoryTool{
		Spec: tools.NewSpec(tools.KindMemory, "search_memory",
			"Search memory for topics matching a query. "+
				"Useful for finding related topics or browsing research history. "+
				"Input should be a search query string. "+
				"Returns a list of matching topics with summaries and metadata."),
		svc: svc,
	}
}

// Invoke searches topics in the current domain.
func (t *SearchMemoryTool) Invoke(ctx context.Context, input string) (string, error) {
	query, tags := parseSearchInput(input)

	topics, err := t.svc.SearchTopics(ctx, memory.SearchOptions{Query: query, Tags: tags})
	if err != nil {
		return "", fmt.Errorf("search_memory: %w", err)
	}
	if len(topics) == 0 {
		return fmt.Sprintf("No topics found matching '%s'", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d topic(s) matching '%s':\n\n", len(topics), query)
	for i, topic := range topics {
		fmt.Fprintf(&b, "%d. %s\n", i+1, topic.Name)
		fmt.Fprintf(&b, "   Last mentioned: %d days ago\n", daysAgo(t.svc, topic.LastMentioned))
		if topic.Summary != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", textutil.Truncate(topic.Summary, summaryPreview))
		}
		if len(topic.Tags) > 0 {
			fmt.Fprintf(&b, "   Tags: %s\n", strings.Join(topic.Tags, ", "))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
