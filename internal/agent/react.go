package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HendryAvila/scout/internal/domain"
	"github.com/HendryAvila/scout/internal/tools"
)

// fallbackContext is used when no domain context is supplied.
var fallbackContext = domain.PromptContext{
	Domain:      "AI/ML",
	Description: "AI and Machine Learning development",
	Keywords:    "AI libraries, ML frameworks, LLM models, vector databases",
	FocusAreas:  "new libraries, frameworks, models, and tools",
}

const promptTemplate = `You are a Research Assistant specialized in tracking trending topics in {description}.

Your mission is to research {focus_areas} in the {domain} ecosystem. You have access to tools to search the web, check your memory for previously researched topics, save findings to memory, and send email reports.

RESEARCH FOCUS:
- Domain: {domain}
- Key areas: {keywords}
- Focus on: {focus_areas}

IMPORTANT MEMORY WORKFLOW:
1. BEFORE researching: Use check_memory or check_novelty to see if the topic was already researched
2. DURING research: Gather information using search tools
3. AFTER researching: Use save_to_memory to store your findings so you don't repeat them later
4. Only present novel information that hasn't been shared in the last 7 days

SAVING TO MEMORY:
After researching a topic, ALWAYS save it to memory with:
- Topic name
- Brief summary of what you found
- Source URLs you used
- Relevant tags

This ensures you won't waste time re-researching the same topics.

SENDING NEWSLETTERS:
When the user asks for a newsletter:
1. Use send_research_newsletter tool with the number of topics to include
2. The tool will retrieve findings and send the email automatically
3. Done!

Example workflow:
User: "Send me a newsletter"
1. Call send_research_newsletter with number of topics (e.g., "10")
2. Done! The newsletter will be retrieved and emailed automatically

TOOLS:
You have access to the following tools:

{tools}

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [{tool_names}]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin!

`

// buildPrompt renders the fixed part of the prompt for one session.
func buildPrompt(pc domain.PromptContext, reg *tools.Registry) string {
	if pc.Domain == "" {
		pc = fallbackContext
	}
	return strings.NewReplacer(
		"{description}", pc.Description,
		"{focus_areas}", pc.FocusAreas,
		"{domain}", pc.Domain,
		"{keywords}", pc.Keywords,
		"{tools}", reg.Describe(),
		"{tool_names}", strings.Join(reg.Names(), ", "),
	).Replace(promptTemplate)
}

// Step is one action taken during a turn and what it observed.
type Step struct {
	Log         string `json:"log"`
	Tool        string `json:"tool"`
	Input       string `json:"input"`
	Observation string `json:"observation"`
}

// scratchpad renders the steps so far for the next completion.
func scratchpad(question string, steps []Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\nThought: ", question)
	for _, s := range steps {
		b.WriteString(s.Log)
		fmt.Fprintf(&b, "\nObservation: %s\nThought: ", s.Observation)
	}
	return b.String()
}

// ─── Parsing ─────────────────────────────────────────────────────────────────

const finalAnswerMarker = "Final Answer:"

var actionPattern = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)

var (
	missingActionPattern = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)`)
	missingInputPattern  = regexp.MustCompile(`(?s)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
)

// action is the parsed reply of the model.
type action struct {
	Log    string
	Tool   string
	Input  string
	Final  bool
	Answer string
}

// parseError is a reply the loop cannot act on. Observation is fed back to
// the model.
type parseError struct {
	Observation string
	Output      string
}

func (e *parseError) Error() string {
	return "could not parse LLM output: " + e.Observation
}

// parseReply reads a Thought/Action/Action Input or Final Answer reply.
// Anything after a hallucinated "Observation:" is dropped.
func parseReply(text string) (action, error) {
	if i := strings.Index(text, "\nObservation"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimRight(text, " \t\r\n")

	m := actionPattern.FindStringSubmatch(text)
	hasFinal := strings.Contains(text, finalAnswerMarker)

	switch {
	case m != nil && hasFinal:
		return action{}, &parseError{
			Observation: "Invalid Format: Do not give an Action and a Final Answer in the same reply.",
			Output:      text,
		}
	case m != nil:
		input := strings.TrimSpace(m[2])
		input = strings.TrimPrefix(strings.TrimSuffix(input, `"`), `"`)
		return action{
			Log:   text,
			Tool:  strings.TrimSpace(m[1]),
			Input: input,
		}, nil
	case hasFinal:
		answer := text[strings.LastIndex(text, finalAnswerMarker)+len(finalAnswerMarker):]
		return action{Log: text, Final: true, Answer: strings.TrimSpace(answer)}, nil
	case !missingActionPattern.MatchString(text):
		return action{}, &parseError{
			Observation: "Invalid Format: Missing 'Action:' after 'Thought:'",
			Output:      text,
		}
	case !missingInputPattern.MatchString(text):
		return action{}, &parseError{
			Observation: "Invalid Format: Missing 'Action Input:' after 'Action:'",
			Output:      text,
		}
	default:
		return action{}, &parseError{
			Observation: "Invalid Format: Could not parse the reply.",
			Output:      text,
		}
	}
}
