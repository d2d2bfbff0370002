// Package cli is the interactive chat front-end: the domain menu, the
// read-eval-print loop and the yes/no prompts the core asks through
// callbacks.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/HendryAvila/scout/internal/budget"
)

// Console reads lines from the user and writes styled output. Every prompt
// of a chat session shares one Console so buffered input is never lost.
type Console struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	styles styles
}

// NewConsole creates a Console. Colors are used only when out is a
// terminal.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Printf writes formatted output.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Println writes a line.
func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

// Success writes a line in the success style.
func (c *Console) Success(msg string) {
	fmt.Fprintln(c.out, c.styles.success.Render(msg))
}

// Warn writes a line in the warning style.
func (c *Console) Warn(msg string) {
	fmt.Fprintln(c.out, c.styles.warning.Render(msg))
}

// Error writes a line in the error style.
func (c *Console) Error(msg string) {
	fmt.Fprintln(c.out, c.styles.failure.Render(msg))
}

// ReadLine shows prompt and returns the next line without its newline. A
// final line without newline is returned before io.EOF.
func (c *Console) ReadLine(prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question. Only y or yes (any case) is a yes; a read
// error is a no.
func (c *Console) Confirm(prompt string) bool {
	answer, err := c.ReadLine(prompt)
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Permission is the budget.PermissionFunc asked at the tool-call limit.
func (c *Console) Permission(count int) bool {
	return c.Confirm(c.styles.warning.Render(
		fmt.Sprintf("\n🛑 Tool call limit reached (%d calls). Continue? (y/n): ", count)))
}

// ConfirmReuse is the domain.ReuseConfirmer offered when a custom domain
// name matches an existing domain.
func (c *Console) ConfirmReuse(ctx context.Context, requested, existing string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.Confirm(fmt.Sprintf("\nFound a similar existing domain '%s'. Use it instead of creating '%s'? (y/n): ",
		existing, requested)), nil
}

// BudgetEvent prints governor events the user should see.
func (c *Console) BudgetEvent(e budget.Event) {
	switch e.Kind {
	case budget.EventWarning:
		c.Warn(fmt.Sprintf("\n⚠️  Tool call %d/%d - approaching limit", e.Count, e.Max))
	case budget.EventToolError:
		c.Warn(fmt.Sprintf("\n⚠️  Tool error: %v", e.Err))
	case budget.EventDenied:
		c.Error(fmt.Sprintf("\n🛑 Tool call limit (%d) reached!", e.Max))
	}
}
