package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/scout/internal/budget"
	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/llm"
	"github.com/HendryAvila/scout/internal/metrics"
	"github.com/HendryAvila/scout/internal/tools"
)

// scriptedLLM answers with the given replies in order and records prompts.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func (s *scriptedLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "Thought: keep going\nAction: echo\nAction Input: again", nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *scriptedLLM) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.requests[len(s.requests)-1].Messages
	return msgs[len(msgs)-1].Content
}

func echoTool() tools.Tool {
	return tools.NewFunc(tools.NewSpec(tools.KindMemory, "echo", "Echo the input."),
		func(_ context.Context, in string) (string, error) { return "echo: " + in, nil })
}

func newTestOrchestrator(t *testing.T, l llm.Completer, gov *budget.Governor, extra ...tools.Tool) *Orchestrator {
	t.Helper()
	reg := tools.NewRegistry()
	reg.MustRegister(append([]tools.Tool{echoTool()}, extra...)...)
	o, err := New(Config{LLM: l, Tools: reg, Governor: gov, History: NewHistory(0), Metrics: metrics.New()})
	require.NoError(t, err)
	o.newID = func() string { return "turn-1" }
	return o
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{Tools: tools.NewRegistry()})
	assert.Error(t, err)
	_, err = New(Config{LLM: &scriptedLLM{}})
	assert.Error(t, err)
}

func TestPrompt_UsesDomainContextAndTools(t *testing.T) {
	reg := tools.NewRegistry()
	reg.MustRegister(echoTool())
	o, err := New(Config{
		LLM:   &scriptedLLM{},
		Tools: reg,
		Context: domain.PromptContext{
			Domain:      "Cloud/DevOps",
			Description: "Cloud infrastructure",
			Keywords:    "kubernetes, terraform",
			FocusAreas:  "new tools",
		},
	})
	require.NoError(t, err)

	p := o.Prompt()
	assert.Contains(t, p, "tracking trending topics in Cloud infrastructure.")
	assert.Contains(t, p, "- Domain: Cloud/DevOps\n- Key areas: kubernetes, terraform\n- Focus on: new tools")
	assert.Contains(t, p, "echo: Echo the input.")
	assert.Contains(t, p, "should be one of [echo]")
}

func TestPrompt_FallbackContext(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedLLM{}, nil)
	assert.Contains(t, o.Prompt(), "in the AI/ML ecosystem")
}

func TestRun_ActThenAnswer(t *testing.T) {
	l := &scriptedLLM{replies: []string{
		"Thought: check memory first\nAction: echo\nAction Input: \"LangChain\"",
		"Thought: I now know the final answer\nFinal Answer: LangChain is new.",
	}}
	o := newTestOrchestrator(t, l, budget.New(10))

	res := o.Run(context.Background(), "What is new?")
	require.True(t, res.Success, res.Output)
	assert.Equal(t, "LangChain is new.", res.Output)
	assert.Equal(t, "turn-1", res.TurnID)
	assert.Equal(t, 1, res.ToolCalls)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, Step{
		Log:         "Thought: check memory first\nAction: echo\nAction Input: \"LangChain\"",
		Tool:        "echo",
		Input:       "LangChain",
		Observation: "echo: LangChain",
	}, res.Steps[0])

	last := l.lastPrompt()
	assert.Contains(t, last, "Question: What is new?\nThought: Thought: check memory first")
	assert.Contains(t, last, "\nObservation: echo: LangChain\nThought: ")
}

func TestRun_InvalidFormatAndUnknownToolDoNotCount(t *testing.T) {
	l := &scriptedLLM{replies: []string{
		"I am not sure what to do",
		"Thought: try\nAction: teleport\nAction Input: mars",
		"Final Answer: done",
	}}
	o := newTestOrchestrator(t, l, budget.New(10))

	res := o.Run(context.Background(), "q")
	require.True(t, res.Success)
	assert.Equal(t, 0, res.ToolCalls)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, "Invalid Format: Missing 'Action:' after 'Thought:'", res.Steps[0].Observation)
	assert.Equal(t, "teleport is not a valid tool, try one of [echo].", res.Steps[1].Observation)
}

func TestRun_IterationLimit(t *testing.T) {
	l := &scriptedLLM{}
	o := newTestOrchestrator(t, l, budget.New(3))

	res := o.Run(context.Background(), "loop forever")
	assert.True(t, res.Success)
	assert.Equal(t, IterationLimitOutput, res.Output)
	assert.Equal(t, 3, res.ToolCalls)
	assert.Len(t, l.requests, 3)
}

func TestRun_PermissionDeniedStopsTurn(t *testing.T) {
	var asked []int
	gov := budget.New(2, budget.WithPermission(func(count int) bool {
		asked = append(asked, count)
		return false
	}))
	o := newTestOrchestrator(t, &scriptedLLM{}, gov)

	res := o.Run(context.Background(), "q")
	assert.False(t, res.Success)
	assert.Equal(t, ErrorToolLimit, res.ErrorType)
	assert.Equal(t, "Tool call limit (2) reached. User denied permission to continue.", res.Error)
	assert.Equal(t, "🛑 Tool call limit (2) reached. User denied permission to continue.", res.Output)
	assert.Equal(t, 2, res.ToolCalls)
	assert.Equal(t, []int{2}, asked)
	assert.Len(t, res.Steps, 1, "the denied call must not run")
}

func TestRun_ResetsBudgetEachTurn(t *testing.T) {
	l := &scriptedLLM{replies: []string{
		"Action: echo\nAction Input: a",
		"Action: echo\nAction Input: b",
		"Final Answer: one",
		"Action: echo\nAction Input: c",
		"Final Answer: two",
	}}
	o := newTestOrchestrator(t, l, budget.New(10))

	assert.Equal(t, 2, o.Run(context.Background(), "first").ToolCalls)
	assert.Equal(t, 1, o.Run(context.Background(), "second").ToolCalls)
}

func TestRun_RecoverableToolFailureContinues(t *testing.T) {
	var events []budget.Event
	gov := budget.New(10, budget.WithEventHandler(func(e budget.Event) { events = append(events, e) }))
	flaky := tools.NewFunc(tools.NewSpec(tools.KindSearch, "search_web", "Search."),
		func(context.Context, string) (string, error) {
			return "", tools.Fail("Error performing search: quota", errors.New("quota"))
		})
	l := &scriptedLLM{replies: []string{
		"Action: search_web\nAction Input: x",
		"Final Answer: search is down",
	}}
	o := newTestOrchestrator(t, l, gov, flaky)

	res := o.Run(context.Background(), "q")
	require.True(t, res.Success)
	assert.Equal(t, "Error performing search: quota", res.Steps[0].Observation)
	require.NotEmpty(t, events)
	assert.Equal(t, budget.EventToolError, events[len(events)-1].Kind)
}

func TestRun_FatalToolErrorAborts(t *testing.T) {
	broken := tools.NewFunc(tools.NewSpec(tools.KindMemory, "save_to_memory", "Save."),
		func(context.Context, string) (string, error) {
			return "", errors.New("save_to_memory: database is locked")
		})
	l := &scriptedLLM{replies: []string{"Action: save_to_memory\nAction Input: {}"}}
	o := newTestOrchestrator(t, l, budget.New(10), broken)

	res := o.Run(context.Background(), "q")
	assert.False(t, res.Success)
	assert.Equal(t, ErrorOther, res.ErrorType)
	assert.Equal(t, "⚠️ An error occurred: save_to_memory: database is locked", res.Output)
}

func TestRun_ClassifiesLLMErrors(t *testing.T) {
	tests := []struct {
		err    error
		kind   ErrorKind
		output string
	}{
		{fmt.Errorf("llm: rate limit exceeded: 429"), ErrorRateLimit, "⚠️ API rate limit reached. Please try again in a moment."},
		{fmt.Errorf("llm: request timeout: 504"), ErrorTimeout, "⚠️ Request timed out. Please check your connection and try again."},
		{fmt.Errorf("llm: authentication failed, invalid api key: 401"), ErrorAuthentication, "⚠️ Authentication error. Please check your API keys in .env file."},
		{errors.New("boom"), ErrorOther, "⚠️ An error occurred: boom"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			o := newTestOrchestrator(t, &scriptedLLM{err: tt.err}, budget.New(10))
			res := o.Run(context.Background(), "q")
			assert.False(t, res.Success)
			assert.Equal(t, tt.kind, res.ErrorType)
			assert.Equal(t, tt.output, res.Output)
			assert.Equal(t, tt.err.Error(), res.Error)
		})
	}
}

func TestRun_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := newTestOrchestrator(t, &scriptedLLM{}, budget.New(10))

	res := o.Run(ctx, "q")
	assert.False(t, res.Success)
	assert.True(t, res.Interrupted)
	assert.Equal(t, "Interrupted by user", res.Error)
	assert.Equal(t, "Execution interrupted by user.", res.Output)
}

func TestRun_DeadlineIsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()
	o := newTestOrchestrator(t, &scriptedLLM{}, budget.New(10))

	res := o.Run(ctx, "q")
	assert.False(t, res.Interrupted)
	assert.Equal(t, ErrorTimeout, res.ErrorType)
}

func TestRun_HistoryCarriesAcrossTurns(t *testing.T) {
	l := &scriptedLLM{replies: []string{"Final Answer: Qdrant", "Final Answer: Rust"}}
	o := newTestOrchestrator(t, l, budget.New(10))

	o.Run(context.Background(), "Best vector db?")
	o.Run(context.Background(), "Written in?")

	msgs := l.requests[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "Best vector db?"}, msgs[0])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "Qdrant"}, msgs[1])

	o.ClearMemory()
	l.replies = []string{"Final Answer: ok"}
	o.Run(context.Background(), "fresh")
	assert.Len(t, l.requests[2].Messages, 1)
}

func TestRunAsync(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedLLM{replies: []string{"Final Answer: async"}}, budget.New(10))

	res, ok := <-o.RunAsync(context.Background(), "q")
	require.True(t, ok)
	assert.Equal(t, "async", res.Output)
	_, ok = <-o.RunAsync(context.Background(), "q")
	assert.True(t, ok)
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    action
		wantObs string
	}{
		{
			name: "action",
			in:   "Thought: look\nAction: search_web\nAction Input: vector databases",
			want: action{Log: "Thought: look\nAction: search_web\nAction Input: vector databases", Tool: "search_web", Input: "vector databases"},
		},
		{
			name: "hallucinated observation is dropped",
			in:   "Action: echo\nAction Input: x\nObservation: made up\nFinal Answer: y",
			want: action{Log: "Action: echo\nAction Input: x", Tool: "echo", Input: "x"},
		},
		{
			name: "final answer",
			in:   "Thought: I now know the final answer\nFinal Answer: it is\nmultiline",
			want: action{Log: "Thought: I now know the final answer\nFinal Answer: it is\nmultiline", Final: true, Answer: "it is\nmultiline"},
		},
		{
			name:    "both",
			in:      "Action: echo\nAction Input: x\nFinal Answer: y",
			wantObs: "Invalid Format: Do not give an Action and a Final Answer in the same reply.",
		},
		{
			name:    "missing action",
			in:      "just chatting",
			wantObs: "Invalid Format: Missing 'Action:' after 'Thought:'",
		},
		{
			name:    "missing input",
			in:      "Thought: hmm\nAction: echo",
			wantObs: "Invalid Format: Missing 'Action Input:' after 'Action:'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReply(tt.in)
			if tt.wantObs != "" {
				var perr *parseError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, tt.wantObs, perr.Observation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify(t *testing.T) {
	denied := budget.Decision{Action: budget.Stop, Reason: "Tool call limit (10) reached. User denied permission to continue."}
	kind, out := classify(denied.Err())
	assert.Equal(t, ErrorToolLimit, kind)
	assert.Equal(t, "🛑 Tool call limit (10) reached. User denied permission to continue.", out)

	kind, _ = classify(context.DeadlineExceeded)
	assert.Equal(t, ErrorTimeout, kind)

	kind, out = classify(errors.New("Tool call limit exceeded upstream"))
	assert.Equal(t, ErrorToolLimit, kind)
	assert.True(t, strings.HasPrefix(out, "🛑 "))
}

func TestHistory_MaxTurns(t *testing.T) {
	h := NewHistory(2)
	h.Add("q1", "a1")
	h.Add("q2", "a2")
	h.Add("q3", "a3")

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "q2", h.Messages()[0].Content)
}
