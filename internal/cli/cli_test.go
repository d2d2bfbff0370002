package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/scout/internal/agent"
	"github.com/HendryAvila/scout/internal/budget"
	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/memory"
)

func newConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return NewConsole(strings.NewReader(input), &out), &out
}

type fakeAgent struct {
	queries []string
	cleared int
	result  func(query string) agent.Result
}

func (a *fakeAgent) Run(_ context.Context, query string) agent.Result {
	a.queries = append(a.queries, query)
	if a.result != nil {
		return a.result(query)
	}
	return agent.Result{Success: true, Output: "answer to " + query}
}

func (a *fakeAgent) ClearMemory() { a.cleared++ }

// ─── Console ─────────────────────────────────────────────────────────────────

func TestConsole_ReadLine(t *testing.T) {
	c, out := newConsole("first\r\nlast")

	line, err := c.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = c.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = c.ReadLine("> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > ", out.String())
}

func TestConsole_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"sure\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		c, _ := newConsole(tt.input)
		assert.Equal(t, tt.want, c.Confirm("? "), "input %q", tt.input)
	}
}

func TestConsole_Permission(t *testing.T) {
	c, out := newConsole("y\n")

	assert.True(t, c.Permission(10))
	assert.Contains(t, out.String(), "Tool call limit reached (10 calls). Continue? (y/n)")
}

func TestConsole_PermissionFeedsGovernor(t *testing.T) {
	c, _ := newConsole("n\n")
	g := budget.New(2, budget.WithPermission(c.Permission))

	assert.False(t, g.BeforeTool("search_web").Stopped())
	d := g.BeforeTool("search_web")

	assert.True(t, d.Stopped())
	assert.Equal(t, "Tool call limit (2) reached. User denied permission to continue.", d.Reason)
}

func TestConsole_ConfirmReuse(t *testing.T) {
	c, out := newConsole("y\n")

	ok, err := c.ConfirmReuse(context.Background(), "ML stuff", "AI/ML")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Found a similar existing domain 'AI/ML'. Use it instead of creating 'ML stuff'?")
}

func TestConsole_ConfirmReuseCancelled(t *testing.T) {
	c, _ := newConsole("y\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := c.ConfirmReuse(ctx, "a", "b")

	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsole_BudgetEvent(t *testing.T) {
	c, out := newConsole("")

	c.BudgetEvent(budget.Event{Kind: budget.EventWarning, Count: 8, Max: 10})
	c.BudgetEvent(budget.Event{Kind: budget.EventToolError, Err: errors.New("boom")})
	c.BudgetEvent(budget.Event{Kind: budget.EventDenied, Max: 10})
	c.BudgetEvent(budget.Event{Kind: budget.EventLimitReached, Count: 10, Max: 10})

	s := out.String()
	assert.Contains(t, s, "Tool call 8/10 - approaching limit")
	assert.Contains(t, s, "Tool error: boom")
	assert.Contains(t, s, "Tool call limit (10) reached!")
	assert.Equal(t, 1, strings.Count(s, "reached"))
}

// ─── Domain menu ─────────────────────────────────────────────────────────────

type fakeSelector struct {
	named   []string
	customs []domain.Custom
	created bool
	err     error
}

func (f *fakeSelector) SetCurrentDomain(_ context.Context, name string) (domain.Scope, error) {
	f.named = append(f.named, name)
	if f.err != nil {
		return domain.Scope{}, f.err
	}
	return domain.Scope{ID: 1, Name: name}, nil
}

func (f *fakeSelector) SetCurrentCustomDomain(_ context.Context, c domain.Custom) (domain.Scope, bool, error) {
	f.customs = append(f.customs, c)
	if f.err != nil {
		return domain.Scope{}, false, f.err
	}
	return domain.Scope{ID: 2, Name: c.Name}, f.created, nil
}

type stubMatcher struct {
	match string
	calls int
}

func (m *stubMatcher) FindMatchingDomain(context.Context, string, []domain.Candidate) (string, bool, error) {
	m.calls++
	return m.match, true, nil
}

// newMatchingManager returns a manager over a fresh store holding the AI/ML
// preset, whose matcher always proposes AI/ML and whose reuse prompts are
// answered on c.
func newMatchingManager(t *testing.T, c *Console) (*domain.Manager, *stubMatcher, domain.Scope) {
	t.Helper()
	store, err := memory.New(memory.Config{Path: filepath.Join(t.TempDir(), "memory.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	matcher := &stubMatcher{match: "AI/ML"}
	m := domain.NewManager(store, domain.WithMatcher(matcher), domain.WithReuseConfirmer(c.ConfirmReuse))
	aiml, err := m.SetCurrentDomain(context.Background(), "ai-ml")
	require.NoError(t, err)
	return m, matcher, aiml
}

func TestSelectDomain_Configured(t *testing.T) {
	c, out := newConsole("")
	sel := &fakeSelector{}

	scope, err := SelectDomain(context.Background(), c, sel, "  web3 ")

	require.NoError(t, err)
	assert.Equal(t, "web3", scope.Name)
	assert.Equal(t, []string{"web3"}, sel.named)
	assert.Contains(t, out.String(), "✓ Using configured topic: web3")
	assert.NotContains(t, out.String(), "Your choice")
}

func TestSelectDomain_Presets(t *testing.T) {
	for choice, want := range map[string]string{
		"1": "ai-ml", "2": "cryptocurrency", "3": "web3", "4": "quantum-computing",
	} {
		c, _ := newConsole(choice + "\n")
		sel := &fakeSelector{}

		scope, err := SelectDomain(context.Background(), c, sel, "")

		require.NoError(t, err)
		assert.Equal(t, want, scope.Name, "choice %s", choice)
		assert.Empty(t, sel.customs)
	}
}

func TestSelectDomain_RetriesInvalidChoice(t *testing.T) {
	c, out := newConsole("9\nabc\n3\n")

	scope, err := SelectDomain(context.Background(), c, &fakeSelector{}, "")

	require.NoError(t, err)
	assert.Equal(t, "web3", scope.Name)
	assert.Equal(t, 2, strings.Count(out.String(), "Invalid choice. Please enter 1-5."))
}

func TestSelectDomain_Custom(t *testing.T) {
	c, out := newConsole("5\nRobotics\n\nros, , actuators\n")
	sel := &fakeSelector{created: true}

	scope, err := SelectDomain(context.Background(), c, sel, "")

	require.NoError(t, err)
	assert.Equal(t, "Robotics", scope.Name)
	assert.Empty(t, sel.named)
	require.Len(t, sel.customs, 1)
	assert.Equal(t, domain.Custom{
		Name:        "Robotics",
		Description: "Custom research domain: Robotics",
		Keywords:    []string{"ros", "actuators"},
	}, sel.customs[0])
	assert.Contains(t, out.String(), "✓ Created custom topic: Robotics")
}

func TestSelectDomain_CustomExisting(t *testing.T) {
	c, out := newConsole("5\nRobotics\nrobots\n\n")

	scope, err := SelectDomain(context.Background(), c, &fakeSelector{}, "")

	require.NoError(t, err)
	assert.Equal(t, "Robotics", scope.Name)
	assert.Contains(t, out.String(), "✓ Using existing topic: Robotics")
}

func TestSelectDomain_CustomConsultsMatcherAndHonoursDecline(t *testing.T) {
	c, out := newConsole("5\nMachine learning frameworks\n\n\nn\n")
	m, matcher, aiml := newMatchingManager(t, c)

	scope, err := SelectDomain(context.Background(), c, m, "")

	require.NoError(t, err)
	assert.Equal(t, 1, matcher.calls)
	assert.Contains(t, out.String(), "Found a similar existing domain 'AI/ML'. Use it instead of creating 'Machine learning frameworks'?")
	assert.NotEqual(t, aiml.ID, scope.ID)
	assert.Equal(t, "Machine learning frameworks", scope.Name)
	assert.Contains(t, out.String(), "✓ Created custom topic: Machine learning frameworks")

	stats, err := m.GetDomainStats(context.Background(), scope.Name)
	require.NoError(t, err)
	assert.Equal(t, "Custom research domain: Machine learning frameworks", stats.Description)
}

func TestSelectDomain_CustomReusesConfirmedMatch(t *testing.T) {
	c, out := newConsole("5\nML stuff\nmodels\ntorch\ny\n")
	m, matcher, aiml := newMatchingManager(t, c)

	scope, err := SelectDomain(context.Background(), c, m, "")

	require.NoError(t, err)
	assert.Equal(t, 1, matcher.calls)
	assert.Equal(t, aiml, scope)
	assert.Contains(t, out.String(), "✓ Using existing topic: AI/ML")

	list, err := m.ListDomains(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSelectDomain_CustomEmptyNameRetries(t *testing.T) {
	c, out := newConsole("5\n   \n1\n")
	sel := &fakeSelector{}

	scope, err := SelectDomain(context.Background(), c, sel, "")

	require.NoError(t, err)
	assert.Equal(t, "ai-ml", scope.Name)
	assert.Empty(t, sel.customs)
	assert.Contains(t, out.String(), "Please enter a topic name.")
}

func TestSelectDomain_ResolveFailure(t *testing.T) {
	c, _ := newConsole("5\nRobotics\n\n\n")

	_, err := SelectDomain(context.Background(), c, &fakeSelector{err: errors.New("disk full")}, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSelectDomain_EOF(t *testing.T) {
	c, _ := newConsole("")

	_, err := SelectDomain(context.Background(), c, &fakeSelector{}, "")

	assert.ErrorIs(t, err, io.EOF)
}

func TestShowDomainStats(t *testing.T) {
	c, out := newConsole("")
	ShowDomainStats(c, domain.Stats{
		Exists:       true,
		Name:         "AI/ML",
		Description:  "AI and Machine Learning development",
		TopicCount:   5,
		RecentTopics: []string{"a", "b", "c", "d", "e"},
	})

	s := out.String()
	assert.Contains(t, s, "✓ Domain: AI/ML")
	assert.Contains(t, s, "Topics researched: 5")
	assert.Contains(t, s, "Recent topics: a, b, c")
	assert.Contains(t, s, "...and 2 more")
}

func TestShowDomainStats_New(t *testing.T) {
	c, out := newConsole("")
	ShowDomainStats(c, domain.Stats{Name: "Robotics"})

	assert.Contains(t, out.String(), "✓ New research domain - no previous data")
}

// ─── REPL ────────────────────────────────────────────────────────────────────

func TestREPL_Commands(t *testing.T) {
	c, out := newConsole("help\n?\n\nclear\nwhat's new in RAG?\nexit\nignored\n")
	a := &fakeAgent{}

	err := NewREPL(c, a, WithDomain("AI/ML")).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"what's new in RAG?"}, a.queries)
	assert.Equal(t, 1, a.cleared)

	s := out.String()
	assert.Contains(t, s, "Research trending AI/ML topics")
	assert.Equal(t, 2, strings.Count(s, "Available commands:"))
	assert.Contains(t, s, "✓ Session cleared")
	assert.Contains(t, s, "Agent: answer to what's new in RAG?")
	assert.Contains(t, s, "Goodbye! Happy researching!")
}

func TestREPL_ExitAliases(t *testing.T) {
	for _, cmd := range []string{"quit", "BYE", "Exit"} {
		c, _ := newConsole(cmd + "\nnot reached\n")
		a := &fakeAgent{}

		require.NoError(t, NewREPL(c, a).Run(context.Background()))
		assert.Empty(t, a.queries, cmd)
	}
}

func TestREPL_EndOfInput(t *testing.T) {
	c, _ := newConsole("one\ntwo\n")
	a := &fakeAgent{}

	require.NoError(t, NewREPL(c, a).Run(context.Background()))
	assert.Equal(t, []string{"one", "two"}, a.queries)
}

func TestREPL_ShowsFailures(t *testing.T) {
	c, out := newConsole("q1\nq2\n")
	a := &fakeAgent{result: func(q string) agent.Result {
		if q == "q1" {
			return agent.Result{Success: false, Output: "⚠️ API rate limit reached. Please try again in a moment."}
		}
		return agent.Result{Interrupted: true, Output: "Execution interrupted by user."}
	}}

	require.NoError(t, NewREPL(c, a).Run(context.Background()))

	s := out.String()
	assert.Contains(t, s, "API rate limit reached")
	assert.Contains(t, s, "Execution interrupted by user.")
}

func TestREPL_StopsWhenContextDone(t *testing.T) {
	c, _ := newConsole("q1\n")
	a := &fakeAgent{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, NewREPL(c, a).Run(ctx))
	assert.Empty(t, a.queries)
}
