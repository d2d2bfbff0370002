package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/HendryAvila/scout/internal/budget"
)

// ErrorKind classifies a failed turn.
type ErrorKind string

const (
	ErrorRateLimit      ErrorKind = "rate_limit"
	ErrorTimeout        ErrorKind = "timeout"
	ErrorAuthentication ErrorKind = "authentication"
	ErrorToolLimit      ErrorKind = "tool_limit"
	ErrorOther          ErrorKind = "other"
)

const (
	interruptedError  = "Interrupted by user"
	interruptedOutput = "Execution interrupted by user."
)

// classify maps a turn failure to its kind and user-facing message.
func classify(err error) (ErrorKind, string) {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case errors.Is(err, budget.ErrLimitDenied):
		return ErrorToolLimit, "🛑 " + limitReason(err)
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTimeout, "⚠️ Request timed out. Please check your connection and try again."
	case strings.Contains(lower, "rate limit"):
		return ErrorRateLimit, "⚠️ API rate limit reached. Please try again in a moment."
	case strings.Contains(lower, "timeout"):
		return ErrorTimeout, "⚠️ Request timed out. Please check your connection and try again."
	case strings.Contains(lower, "api key"), strings.Contains(lower, "authentication"):
		return ErrorAuthentication, "⚠️ Authentication error. Please check your API keys in .env file."
	case strings.Contains(lower, "tool call limit"):
		return ErrorToolLimit, "🛑 " + msg
	default:
		return ErrorOther, "⚠️ An error occurred: " + msg
	}
}

// limitReason strips the sentinel prefix from a budget denial.
func limitReason(err error) string {
	prefix := budget.ErrLimitDenied.Error() + ": "
	return strings.TrimPrefix(err.Error(), prefix)
}
