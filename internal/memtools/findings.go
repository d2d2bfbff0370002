package memtools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/newsletter"
	"github.com/HendryAvila/scout/internal/tools"
)

// noFindings is returned as JSON when the domain has nothing to report.
type noFindings struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

var emptyFindings = noFindings{
	Error:      "No research findings available for newsletter",
	Message:    "The current research domain has no saved topics yet. Please research some topics first before requesting a newsletter.",
	Suggestion: "Try researching topics in this domain, then request a newsletter again.",
}

// FindingsTool handles the get_newsletter_findings tool.
type FindingsTool struct {
	tools.Spec
	svc *memory.Service
}

// NewFindingsTool creates a FindingsTool.
func NewFindingsTool(svc *memory.Service) *FindingsTool {
	return &FindingsTool{
		Spec: tools.NewSpec(tools.KindMemory, "get_newsletter_findings",
			"Get recent research findings formatted as JSON for newsletter. "+
				"Use this BEFORE calling send_newsletter to get properly formatted data. "+
				"Input should be the number of topics to include (e.g., '5' or '10'). "+
				"Returns a JSON string ready to pass directly to send_newsletter tool. "+
				"This makes sending newsletters easy - just get findings here, then pass to send_newsletter."),
		svc: svc,
	}
}

// Findings returns up to limit of the most recently mentioned topics as
// newsletter findings.
func (t *FindingsTool) Findings(ctx context.Context, limit int) ([]newsletter.Finding, error) {
	topics, err := t.svc.SearchTopics(ctx, memory.SearchOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("get_newsletter_findings: %w", err)
	}

	findings := make([]newsletter.Finding, 0, len(topics))
	for _, topic := range topics {
		f := newsletter.Finding{
			Topic:   topic.Name,
			Summary: topic.Summary,
			Sources: topic.Sources,
			Tags:    topic.Tags,
		}
		if f.Summary == "" {
			f.Summary = "No summary available"
		}
		if f.Sources == nil {
			f.Sources = []string{}
		}
		if f.Tags == nil {
			f.Tags = []string{}
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// Invoke parses the limit (default 10) and returns the findings as JSON.
func (t *FindingsTool) Invoke(ctx context.Context, input string) (string, error) {
	findings, err := t.Findings(ctx, parseLimit(input, defaultFindingsLimit))
	if err != nil {
		return "", err
	}

	var raw []byte
	if len(findings) == 0 {
		raw, err = json.Marshal(emptyFindings)
	} else {
		raw, err = json.MarshalIndent(findings, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("get_newsletter_findings: encode: %w", err)
	}
	return string(raw), nil
}
