// Package memtools provides the research memory tools the agent calls:
// lookups, novelty checks, saves, statistics and newsletter findings.
//
// Each tool follows the same pattern as internal/tools:
// - A struct embedding tools.Spec, with a memory.Service injected via constructor
// - Invoke() takes the raw string input and returns the observation
//
// Storage failures are returned as errors and abort the turn; bad input is
// answered with an observation so the model can retry.
package memtools

import (
	"strconv"
	"strings"
	"time"

	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/tools"
	"github.com/tidwall/gjson"
)

const (
	defaultFindingsLimit = 10
	fuzzyCandidates      = 5
	summaryPreview       = 200
)

// All returns the memory tools over svc in prompt order.
func All(svc *memory.Service) []tools.Tool {
	return []tools.Tool{
		NewCheckMemoryTool(svc),
		NewSearchMemoryTool(svc),
		NewCheckNoveltyTool(svc),
		NewSaveTool(svc),
		NewFindingsTool(svc),
		NewStatsTool(svc),
	}
}

// daysAgo returns the whole days since t on the service clock.
func daysAgo(svc *memory.Service, t time.Time) int {
	return memory.DaysSince(svc.Now(), t)
}

// parseLimit reads a positive count, falling back to def.
func parseLimit(input string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// splitTags splits a comma separated tag list, dropping blanks.
func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseSearchInput accepts a plain query, a JSON object
// {"query": "...", "tags": [...] or "a, b"}, or "query | tags: a, b".
func parseSearchInput(input string) (query string, tags []string) {
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed) {
		query = strings.TrimSpace(gjson.Get(trimmed, "query").String())
		t := gjson.Get(trimmed, "tags")
		switch {
		case t.IsArray():
			for _, v := range t.Array() {
				if s := strings.TrimSpace(v.String()); s != "" {
					tags = append(tags, s)
				}
			}
		case t.Type == gjson.String:
			tags = splitTags(t.String())
		}
		return query, tags
	}

	if q, rest, ok := strings.Cut(trimmed, "|"); ok {
		rest = strings.TrimSpace(rest)
		if after, found := cutPrefixFold(rest, "tags:"); found {
			return strings.TrimSpace(q), splitTags(after)
		}
	}
	return trimmed, nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
