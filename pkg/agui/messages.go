package agui

import "encoding/json"

// Message roles recognized by the inbound protocol. Unknown roles are passed
// through to the engine untouched.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// FunctionCall names a function and carries its JSON-encoded arguments,
// modelled after OpenAI function calls.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one tool invocation attached to an assistant message.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// Message is one inbound conversation entry. The role field discriminates
// which of the optional fields are meaningful.
type Message struct {
	ID         string     `json:"id,omitempty"`
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// UnmarshalJSON also accepts the snake_case spellings of the camelCase wire
// names, so clients may send either form. The camelCase value wins when a
// payload carries both.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	aux := struct {
		*plain
		ToolCalls  []ToolCall `json:"tool_calls"`
		ToolCallID string     `json:"tool_call_id"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.ToolCalls == nil {
		m.ToolCalls = aux.ToolCalls
	}
	if m.ToolCallID == "" {
		m.ToolCallID = aux.ToolCallID
	}
	return nil
}

// Tool declares a frontend-executed tool: a name, a description and a JSON
// schema for its parameters. The backend never executes a tool body; the
// descriptor only teaches the engine to stop generation and report intent.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// Context is an additional description/value pair forwarded to the agent.
type Context struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// RunAgentInput is the inbound run-start payload.
type RunAgentInput struct {
	ThreadID       string    `json:"threadId"`
	RunID          string    `json:"runId"`
	State          any       `json:"state,omitempty"`
	Messages       []Message `json:"messages"`
	Tools          []Tool    `json:"tools,omitempty"`
	Context        []Context `json:"context,omitempty"`
	ForwardedProps any       `json:"forwardedProps,omitempty"`
}

// UnmarshalJSON also accepts snake_case spellings; camelCase wins on
// conflict.
func (m *RunAgentInput) UnmarshalJSON(data []byte) error {
	type plain RunAgentInput
	aux := struct {
		*plain
		ThreadID       string `json:"thread_id"`
		RunID          string `json:"run_id"`
		ForwardedProps any    `json:"forwarded_props"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.ThreadID == "" {
		m.ThreadID = aux.ThreadID
	}
	if m.RunID == "" {
		m.RunID = aux.RunID
	}
	if m.ForwardedProps == nil {
		m.ForwardedProps = aux.ForwardedProps
	}
	return nil
}

// ContinueRunInput is the inbound continuation payload delivering
// out-of-band tool results for a paused run.
type ContinueRunInput struct {
	ThreadID    string            `json:"threadId"`
	RunID       string            `json:"runId"`
	ToolResults map[string]string `json:"toolResults"`
}

// UnmarshalJSON also accepts snake_case spellings; camelCase wins on
// conflict.
func (m *ContinueRunInput) UnmarshalJSON(data []byte) error {
	type plain ContinueRunInput
	aux := struct {
		*plain
		ThreadID    string            `json:"thread_id"`
		RunID       string            `json:"run_id"`
		ToolResults map[string]string `json:"tool_results"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.ThreadID == "" {
		m.ThreadID = aux.ThreadID
	}
	if m.RunID == "" {
		m.RunID = aux.RunID
	}
	if m.ToolResults == nil {
		m.ToolResults = aux.ToolResults
	}
	return nil
}
