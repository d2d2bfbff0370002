package memtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/HendryAvila/scout/internal/memory"
	"github.com/HendryAvila/scout/internal/tools"
)

var validate = validator.New()

// saveInput is the JSON payload accepted by save_to_memory.
type saveInput struct {
	Topic   string   `json:"topic" validate:"required"`
	Summary string   `json:"summary"`
	Sources []string `json:"sources"`
	Tags    []string `json:"tags"`
}

// SaveTool handles the save_to_memory tool.
type SaveTool struct {
	tools.Spec
	svc *memory.Service
}

// NewSaveTool creates a SaveTool.
func NewSaveTool(svc *memory.Service) *SaveTool {
	return &SaveTool{
		Spec: tools.NewSpec(tools.KindMemory, "save_to_memory",
			"Save a researched topic to memory for future reference. "+
				"Use this AFTER researching a topic to store the findings. "+
				"Input should be a JSON string with this format: "+
				`{"topic": "topic name", "summary": "brief summary", "sources": ["url1", "url2"], "tags": ["tag1", "tag2"]}. `+
				"This helps avoid researching the same topic repeatedly."),
		svc: svc,
	}
}

// Invoke decodes and stores one researched topic.
func (t *SaveTool) Invoke(ctx context.Context, input string) (string, error) {
	var in saveInput
	if err := json.Unmarshal([]byte(strings.TrimSpace(input)), &in); err != nil {
		return "Error: Invalid JSON format. Please provide data as JSON string.", nil
	}
	in.Topic = strings.TrimSpace(in.Topic)

	if err := validate.Struct(in); err != nil {
		return describeValidation(err), nil
	}

	if _, err := t.svc.StoreTopic(ctx, in.Topic, in.Summary, in.Sources, in.Tags); err != nil {
		if errors.Is(err, memory.ErrInvalidTopic) {
			return "Error: 'topic' field is required", nil
		}
		return "", fmt.Errorf("save_to_memory: %w", err)
	}
	return fmt.Sprintf("✓ Saved '%s' to memory with %d sources and %d tags.", in.Topic, len(in.Sources), len(in.Tags)), nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Error: " + err.Error()
	}
	switch field := verrs[0].Field(); field {
	case "Topic":
		return "Error: 'topic' field is required"
	default:
		return fmt.Sprintf("Error: '%s' is invalid", strings.ToLower(field))
	}
}
