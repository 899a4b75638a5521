// Package engine defines the execution engine boundary: the native
// conversation-entry format sent to a model backend and the upstream event
// stream it produces while generating.
package engine

import "context"

// Role of a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ContentBlock is one piece of a conversation entry. Exactly one field is
// set.
type ContentBlock struct {
	Text       string      `json:"text,omitempty"`
	ToolUse    *ToolUse    `json:"toolUse,omitempty"`
	ToolResult *ToolResult `json:"toolResult,omitempty"`
}

// ToolUse records an engine-raised tool invocation.
type ToolUse struct {
	ID    string         `json:"toolUseId"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// Tool result statuses.
const (
	ToolResultSuccess = "success"
	ToolResultError   = "error"
)

// ToolResult carries the outcome of an externally executed tool call back to
// the engine.
type ToolResult struct {
	ToolUseID string `json:"toolUseId"`
	Content   string `json:"content"`
	Status    string `json:"status"`
}

// Message is one engine-native conversation entry.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// TextMessage builds a single-text-block entry.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{{Text: text}}}
}

// ToolResultMessage builds the user-role entry that presents one tool result
// to the engine.
func ToolResultMessage(result ToolResult) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{{ToolResult: &result}}}
}

// Tool is a declarative tool descriptor registered with the engine. The
// engine is configured to stop generation and report intent when it selects
// one; there is no invocation path.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Engine is an opaque producer of upstream events for one generation turn.
type Engine interface {
	// Stream starts one generation over the given history and tool
	// descriptors and returns the engine's event stream.
	Stream(ctx context.Context, messages []Message, tools []Tool) (EventStream, error)
}

// EventStream delivers upstream events one at a time. Recv returns io.EOF
// once the stream is exhausted.
type EventStream interface {
	Recv() (Event, error)
	Close()
}
