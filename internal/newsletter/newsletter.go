// Package newsletter renders research findings as HTML, Markdown or plain
// text digests.
package newsletter

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
	"unicode/utf8"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DateLayout is the long date used in titles and subjects.
const DateLayout = "January 02, 2006"

// DefaultIntroduction opens every emailed newsletter.
const DefaultIntroduction = "Here are the latest AI research findings."

const maxSources = 5

// Format is a newsletter output format.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat maps a configured format name to a Format. "plain" is an
// alias of "text".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "plain":
		return FormatText, nil
	default:
		return "", fmt.Errorf("newsletter: unknown format type: %s", s)
	}
}

// IsHTML reports whether the format is sent as text/html.
func (f Format) IsHTML() bool { return f == FormatHTML }

// Finding is one research finding as exchanged with the reasoning loop.
type Finding struct {
	Topic   string   `json:"topic"`
	Summary string   `json:"summary"`
	Sources []string `json:"sources"`
	Tags    []string `json:"tags"`
}

// Options customises a rendered newsletter.
type Options struct {
	Title        string
	Introduction string
}

// Renderer renders newsletters from embedded templates.
type Renderer struct {
	html     *htmltemplate.Template
	markdown *texttemplate.Template
	text     *texttemplate.Template
	now      func() time.Time
}

var textFuncs = texttemplate.FuncMap{
	"join":  func(items []string) string { return strings.Join(items, ", ") },
	"upper": strings.ToUpper,
	"rule":  func(ch string, n int) string { return strings.Repeat(ch, n) },
	"underline": func(ch, s string) string {
		return strings.Repeat(ch, utf8.RuneCountInString(s))
	},
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/newsletter.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("newsletter: parse html template: %w", err)
	}
	md, err := texttemplate.New("newsletter.md.tmpl").Funcs(textFuncs).ParseFS(templateFS, "templates/newsletter.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("newsletter: parse markdown template: %w", err)
	}
	txt, err := texttemplate.New("newsletter.txt.tmpl").Funcs(textFuncs).ParseFS(templateFS, "templates/newsletter.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("newsletter: parse text template: %w", err)
	}
	return &Renderer{html: html, markdown: md, text: txt, now: time.Now}, nil
}

// Title returns the default title for a newsletter generated at t.
func Title(t time.Time) string {
	return "AI Research Digest - " + t.Format(DateLayout)
}

// Subject expands the {date} placeholder of a subject template.
func Subject(template string, t time.Time) string {
	if template == "" {
		return Title(t)
	}
	return strings.ReplaceAll(template, "{date}", t.Format(DateLayout))
}

type findingView struct {
	Index   int
	Topic   string
	Summary string
	Tags    []string
	Sources []string
	More    int
	Last    bool
}

type pageView struct {
	Title        string
	Date         string
	Introduction string
	Findings     []findingView
}

// Render renders findings in format.
func (r *Renderer) Render(format Format, findings []Finding, opts Options) (string, error) {
	now := r.now()
	page := pageView{
		Title:        opts.Title,
		Date:         now.Format(DateLayout),
		Introduction: opts.Introduction,
	}
	if page.Title == "" {
		page.Title = Title(now)
	}
	for i, f := range findings {
		v := findingView{
			Index:   i + 1,
			Topic:   f.Topic,
			Summary: f.Summary,
			Tags:    f.Tags,
			Sources: f.Sources,
			Last:    i == len(findings)-1,
		}
		if v.Topic == "" {
			v.Topic = "Untitled"
		}
		if v.Summary == "" {
			v.Summary = "No summary available"
		}
		if len(v.Sources) > maxSources {
			v.More = len(v.Sources) - maxSources
			v.Sources = v.Sources[:maxSources]
		}
		page.Findings = append(page.Findings, v)
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatHTML:
		err = r.html.Execute(&buf, page)
	case FormatMarkdown:
		err = r.markdown.Execute(&buf, page)
	case FormatText:
		err = r.text.Execute(&buf, page)
	default:
		return "", fmt.Errorf("newsletter: unknown format type: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("newsletter: render %s: %w", format, err)
	}
	return buf.String(), nil
}

// ParseFindings decodes the findings handed over by the reasoning loop. A
// JSON list or a single JSON object is accepted; anything else becomes one
// "Research Summary" finding holding the raw input.
func ParseFindings(input string) []Finding {
	trimmed := strings.TrimSpace(input)

	var list []Finding
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		return normalize(list)
	}
	var one Finding
	if err := json.Unmarshal([]byte(trimmed), &one); err == nil && strings.HasPrefix(trimmed, "{") {
		return normalize([]Finding{one})
	}
	return []Finding{{
		Topic:   "Research Summary",
		Summary: input,
		Sources: []string{},
		Tags:    []string{},
	}}
}

func normalize(findings []Finding) []Finding {
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Sources == nil {
			f.Sources = []string{}
		}
		if f.Tags == nil {
			f.Tags = []string{}
		}
		out = append(out, f)
	}
	return out
}
