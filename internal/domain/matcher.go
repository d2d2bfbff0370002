package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/scout/internal/llm"
)

const matchTemperature = 0.1

// LLMMatcher asks a language model whether a custom topic is the same
// research area as one of the existing domains.
type LLMMatcher struct {
	llm llm.Completer
}

// NewLLMMatcher creates a matcher backed by c.
func NewLLMMatcher(c llm.Completer) *LLMMatcher {
	return &LLMMatcher{llm: c}
}

// FindMatchingDomain returns the matched candidate name. A reply naming
// anything other than a supplied candidate is treated as no match.
func (m *LLMMatcher) FindMatchingDomain(ctx context.Context, custom string, candidates []Candidate) (string, bool, error) {
	if len(candidates) == 0 {
		return "", false, nil
	}

	req := llm.Prompt(matchPrompt(custom, candidates))
	req.Temperature = llm.Temperature(matchTemperature)

	reply, err := m.llm.Complete(ctx, req)
	if err != nil {
		return "", false, fmt.Errorf("domain: match %q: %w", custom, err)
	}
	name, ok := parseMatch(reply, candidates)
	return name, ok, nil
}

func parseMatch(reply string, candidates []Candidate) (string, bool) {
	reply = strings.TrimSpace(reply)
	if !strings.HasPrefix(reply, "MATCH:") {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimPrefix(reply, "MATCH:"))
	if !isCandidate(name, candidates) {
		return "", false
	}
	return name, true
}

func matchPrompt(custom string, candidates []Candidate) string {
	var list strings.Builder
	for i, c := range candidates {
		if i > 0 {
			list.WriteString("\n")
		}
		fmt.Fprintf(&list, "- %s: %s", c.Name, c.Description)
	}

	return fmt.Sprintf(`You are a topic classification assistant. Determine if a custom research topic matches any existing research domains.

Custom topic: "%s"

Existing domains:
%s

Task: Determine if the custom topic is broadly the same as any existing domain. Consider:
- Semantic similarity (e.g., "AI and Cybersecurity" matches "AI applied to infosec")
- Domain overlap (e.g., "Machine Learning" would match "AI/ML")
- Contextual equivalence (e.g., "Crypto assets" matches "Cryptocurrency")

IMPORTANT: Be flexible with matching. If the topics are in the same general area, consider them a match.

Respond with ONLY ONE of the following:
1. If there's a match: Return exactly "MATCH: <domain_name>" (use the exact domain name from the list)
2. If there's no match: Return exactly "NO_MATCH"

Examples:
- Custom topic: "AI and Cybersecurity" → MATCH: AI/ML
- Custom topic: "Crypto assets" → MATCH: cryptocurrency
- Custom topic: "Biotechnology" → NO_MATCH
- Custom topic: "Machine learning frameworks" → MATCH: AI/ML

Your response:`, custom, list.String())
}
