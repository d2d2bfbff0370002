package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/HendryAvila/scout/internal/agent"
)

// Agent is the part of the orchestrator the REPL drives.
type Agent interface {
	Run(ctx context.Context, query string) agent.Result
	ClearMemory()
}

const helpText = `
Available commands:
  help, ?     - Show this help message
  clear       - Clear conversation history
  exit, quit  - Exit the application

You can ask me to:
  • "Research new Python AI libraries"
  • "Search for papers about transformers"
  • "What did we discuss about LangChain?"
  • "Send me a newsletter with recent findings"
  • And more!
`

// REPL is the chat loop.
type REPL struct {
	console *Console
	agent   Agent
	domain  string
	// trap makes Ctrl+C interrupt the running turn instead of the process.
	trap bool
}

// REPLOption configures a REPL.
type REPLOption func(*REPL)

// WithInterruptTrap lets Ctrl+C cancel the turn in progress.
func WithInterruptTrap() REPLOption {
	return func(r *REPL) { r.trap = true }
}

// WithDomain names the research domain in the welcome banner.
func WithDomain(name string) REPLOption {
	return func(r *REPL) { r.domain = name }
}

// NewREPL creates a REPL over a.
func NewREPL(c *Console, a Agent, opts ...REPLOption) *REPL {
	r := &REPL{console: c, agent: a}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads queries until exit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	r.welcome()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := r.console.ReadLine(r.console.styles.prompt.Render("You: "))
		if errors.Is(err, io.EOF) {
			r.console.Println()
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "bye":
			r.console.Success("\nGoodbye! Happy researching! 👋\n")
			return nil
		case "help", "?":
			r.console.Printf("%s\n", r.console.styles.help.Render(helpText))
			continue
		case "clear":
			r.agent.ClearMemory()
			r.console.Success("✓ Session cleared")
			continue
		}

		r.show(r.turn(ctx, input))
	}
}

func (r *REPL) turn(ctx context.Context, input string) agent.Result {
	if !r.trap {
		return r.agent.Run(ctx, input)
	}
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return r.agent.Run(turnCtx, input)
}

func (r *REPL) show(res agent.Result) {
	prefix := r.console.styles.agent.Render("Agent: ")
	switch {
	case res.Success:
		r.console.Printf("%s%s\n\n", prefix, res.Output)
	case res.Interrupted:
		r.console.Printf("%s%s\n\n", prefix, r.console.styles.warning.Render(res.Output))
	default:
		r.console.Printf("%s%s\n\n", prefix, r.console.styles.failure.Render(res.Output))
	}
}

func (r *REPL) welcome() {
	title := "Scout Research Assistant - CLI Interface"
	subject := "trending topics"
	if r.domain != "" {
		subject = "trending " + r.domain + " topics"
	}
	r.console.Println(r.console.styles.banner.Render(title))
	r.console.Printf(`
Welcome! I'm your research assistant. I can help you:
  • Research %s and technologies
  • Search for papers, libraries, and frameworks
  • Remember what we've discussed to avoid repetition
  • Send newsletter summaries via email

Type 'help' for commands, or just start chatting!
Type 'exit' to quit.

`, subject)
}
