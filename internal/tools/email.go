package tools

import (
	"context"
	"time"

	"github.com/HendryAvila/scout/internal/mail"
	"github.com/HendryAvila/scout/internal/newsletter"
)

// DefaultNewsletterSubject is used when no subject template is configured.
const DefaultNewsletterSubject = "AI Research Digest - {date}"

const (
	sendNewsletterDescription = "Send a newsletter email with research findings. " +
		"IMPORTANT: First use search_memory to get recent topics, then pass them here. " +
		"Input MUST be a valid JSON string (use json.dumps) with this exact structure: " +
		`[{"topic": "Topic Name", "summary": "Detailed summary of findings", "sources": ["https://url1.com", "https://url2.com"], "tags": ["tag1", "tag2"]}]. ` +
		"Each topic should have: topic (string), summary (string, be detailed!), sources (list of URLs), tags (list). " +
		"Make sure summaries are comprehensive - include key details, features, or findings. " +
		"Use this when the user explicitly requests a newsletter or email report."

	sendEmailDescription = "Send a simple text email with the provided content. " +
		"Input should be the email content as a string. " +
		"Use this for sending quick updates or simple messages. " +
		"For research findings, prefer using send_newsletter instead."
)

// NewsletterConfig controls how newsletters are rendered and addressed.
type NewsletterConfig struct {
	Format newsletter.Format
	// Subject may contain a {date} placeholder.
	Subject string
}

// ─── send_newsletter ─────────────────────────────────────────────────────────

// SendNewsletterTool renders findings and emails them.
type SendNewsletterTool struct {
	Spec
	sender   mail.Sender
	renderer *newsletter.Renderer
	cfg      NewsletterConfig
	now      func() time.Time
}

// NewSendNewsletterTool creates send_newsletter.
func NewSendNewsletterTool(sender mail.Sender, renderer *newsletter.Renderer, cfg NewsletterConfig) *SendNewsletterTool {
	if cfg.Format == "" {
		cfg.Format = newsletter.FormatHTML
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultNewsletterSubject
	}
	return &SendNewsletterTool{
		Spec:     NewSpec(KindEmail, "send_newsletter", sendNewsletterDescription),
		sender:   sender,
		renderer: renderer,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Invoke parses input as findings and sends them.
func (t *SendNewsletterTool) Invoke(ctx context.Context, input string) (string, error) {
	return t.Send(ctx, newsletter.ParseFindings(input))
}

// Send renders findings in the configured format and emails the digest.
func (t *SendNewsletterTool) Send(ctx context.Context, findings []newsletter.Finding) (string, error) {
	body, err := t.renderer.Render(t.cfg.Format, findings, newsletter.Options{
		Introduction: newsletter.DefaultIntroduction,
	})
	if err != nil {
		return "", Fail("Error generating newsletter: "+err.Error(), err)
	}

	to, err := t.sender.Send(ctx, mail.Message{
		Subject: newsletter.Subject(t.cfg.Subject, t.now()),
		Body:    body,
		HTML:    t.cfg.Format.IsHTML(),
	})
	if err != nil {
		return "", Fail(mail.Describe(err), err)
	}
	return "Email sent successfully to " + to, nil
}

// ─── send_email ──────────────────────────────────────────────────────────────

// SendEmailTool sends its input as a plain text email.
type SendEmailTool struct {
	Spec
	sender mail.Sender
	now    func() time.Time
}

// NewSendEmailTool creates send_email.
func NewSendEmailTool(sender mail.Sender) *SendEmailTool {
	return &SendEmailTool{
		Spec:   NewSpec(KindEmail, "send_email", sendEmailDescription),
		sender: sender,
		now:    time.Now,
	}
}

// Invoke sends input as the email body.
func (t *SendEmailTool) Invoke(ctx context.Context, input string) (string, error) {
	to, err := t.sender.Send(ctx, mail.Message{
		Subject: "Research Assistant Update - " + t.now().Format("2006-01-02"),
		Body:    input,
	})
	if err != nil {
		return "", Fail(mail.Describe(err), err)
	}
	return "Email sent successfully to " + to, nil
}
