package prompts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

const defaultNewsletterTopics = 10

// NewsletterPrompt handles the newsletter MCP prompt.
// It asks the AI to email a digest of the saved findings.
type NewsletterPrompt struct {
	oneStep bool
}

// NewNewsletterPrompt creates a NewsletterPrompt. oneStep selects the
// send_research_newsletter workflow when that tool is registered.
func NewNewsletterPrompt(oneStep bool) *NewsletterPrompt {
	return &NewsletterPrompt{oneStep: oneStep}
}

// Definition returns the MCP prompt definition for registration.
func (p *NewsletterPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("newsletter",
		mcp.WithPromptDescription(
			"Email a newsletter with the most recent research findings of the current domain.",
		),
		mcp.WithArgument("topics",
			mcp.ArgumentDescription("Number of topics to include. Default: 10"),
		),
	)
}

// Handle processes the newsletter prompt request.
func (p *NewsletterPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	n := defaultNewsletterTopics
	if args := req.Params.Arguments; args != nil {
		if v, err := strconv.Atoi(args["topics"]); err == nil && v > 0 {
			n = v
		}
	}

	var steps string
	if p.oneStep {
		steps = fmt.Sprintf(
			"1. Run `send_research_newsletter` with input '%d'\n"+
				"2. Tell me who it was sent to, or why it failed", n)
	} else {
		steps = fmt.Sprintf(
			"1. Run `get_newsletter_findings` with input '%d'\n"+
				"2. If it returns findings, pass the JSON unchanged to `send_newsletter`\n"+
				"3. Tell me who it was sent to, or why it failed", n)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Newsletter with %d topics", n),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent("Please send me a research newsletter.\n\n" + steps),
			},
		},
	}, nil
}
