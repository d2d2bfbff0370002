package memtools

import (
	"context"

	"github.com/HendryAvila/scout/internal/tools"
)

// ResearchNewsletterTool handles send_research_newsletter: it reads the
// recent findings of the domain and mails them in one step.
type ResearchNewsletterTool struct {
	tools.Spec
	findings *FindingsTool
	send     *tools.SendNewsletterTool
}

// NewResearchNewsletterTool creates a ResearchNewsletterTool.
func NewResearchNewsletterTool(findings *FindingsTool, send *tools.SendNewsletterTool) *ResearchNewsletterTool {
	return &ResearchNewsletterTool{
		Spec: tools.NewSpec(tools.KindNewsletter, "send_research_newsletter",
			"Send a newsletter email with recent research findings. "+
				"Input: Number of topics to include as a string (e.g., '5' or '10'). "+
				"This tool handles everything: retrieves recent findings from memory and sends them via email. "+
				"Use this when the user requests a newsletter or email digest of research findings. "+
				"Example inputs: '5', '10', '20'"),
		findings: findings,
		send:     send,
	}
}

// Invoke sends the newsletter. An empty domain is reported without mailing.
func (t *ResearchNewsletterTool) Invoke(ctx context.Context, input string) (string, error) {
	findings, err := t.findings.Findings(ctx, parseLimit(input, defaultFindingsLimit))
	if err != nil {
		return "", err
	}
	if len(findings) == 0 {
		return emptyFindings.Error + ". " + emptyFindings.Message, nil
	}
	return t.send.Send(ctx, findings)
}
