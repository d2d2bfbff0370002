// Package prompts implements MCP prompt handlers for research workflows.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResearchStartPrompt handles the research-start MCP prompt.
// It starts a memory-aware research pass on a topic.
type ResearchStartPrompt struct {
	domain string
}

// NewResearchStartPrompt creates a ResearchStartPrompt for the served domain.
func NewResearchStartPrompt(domain string) *ResearchStartPrompt {
	return &ResearchStartPrompt{domain: domain}
}

// Definition returns the MCP prompt definition for registration.
func (p *ResearchStartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("research-start",
		mcp.WithPromptDescription(
			"Research the latest developments on a topic. "+
				"Checks memory first so nothing already reported this week is repeated, "+
				"then searches and saves the findings.",
		),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What to research. Default: what's trending in the current domain"),
		),
	)
}

// Handle processes the research-start prompt request.
func (p *ResearchStartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := ""
	if args := req.Params.Arguments; args != nil {
		topic = args["topic"]
	}

	domain := p.domain
	if domain == "" {
		domain = "AI/ML"
	}
	if topic == "" {
		topic = fmt.Sprintf("what's trending in %s right now", domain)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Research: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to know about %s (research domain: %s).\n\n"+
						"Please:\n"+
						"1. Run `check_novelty` for each candidate topic and skip the ones mentioned in the last 7 days\n"+
						"2. Use `search_web`, `search_github`, `search_arxiv` or `search_news` to gather sources\n"+
						"3. Run `save_to_memory` for every topic you report, with a summary, source URLs and tags\n"+
						"4. Give me a short digest with one paragraph per topic and its links",
					topic, domain,
				)),
			},
		},
	}, nil
}
