package agent

import (
	"sync"

	"github.com/HendryAvila/scout/internal/llm"
)

// History keeps the question/answer pairs of a session so later turns can
// refer to earlier ones. A non-positive max keeps every turn.
type History struct {
	mu       sync.Mutex
	messages []llm.Message
	maxTurns int
}

// NewHistory creates an empty history retaining up to maxTurns turns.
func NewHistory(maxTurns int) *History {
	return &History{maxTurns: maxTurns}
}

// Add appends one finished turn.
func (h *History) Add(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages,
		llm.Message{Role: llm.RoleUser, Content: question},
		llm.Message{Role: llm.RoleAssistant, Content: answer},
	)
	if h.maxTurns > 0 && len(h.messages) > 2*h.maxTurns {
		h.messages = append([]llm.Message(nil), h.messages[len(h.messages)-2*h.maxTurns:]...)
	}
}

// Messages returns a copy of the retained messages, oldest first.
func (h *History) Messages() []llm.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]llm.Message(nil), h.messages...)
}

// Len returns the number of retained turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages) / 2
}

// Clear drops every retained turn.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
