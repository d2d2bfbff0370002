package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/tools"
)

// StatsTool handles the memory_stats tool.
type StatsTool struct {
	tools.Spec
	svc *memory.Service
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(svc *memory.Service) *StatsTool {
	return &StatsTool{
		Spec: tools.NewSpec(tools.KindMemory, "memory_stats",
			"Get statistics about the memory system. "+
				"Shows total topics, recent activity, and database info. "+
				"No input required - just call it to get stats."),
		svc: svc,
	}
}

// Invoke ignores its input and reports the scope statistics.
func (t *StatsTool) Invoke(ctx context.Context, _ string) (string, error) {
	stats, err := t.svc.Stats(ctx)
	if err != nil {
		return "", fmt.Errorf("memory_stats: %w", err)
	}

	var b strings.Builder
	b.WriteString("Memory System Statistics:\n\n")
	fmt.Fprintf(&b, "Total topics researched: %d\n", stats.TotalTopics)
	fmt.Fprintf(&b, "Topics mentioned in last %d days: %d\n", memory.DefaultNoveltyDays, stats.RecentTopics)
	fmt.Fprintf(&b, "Database: %s\n", stats.StorageLocation)
	return b.String(), nil
}
