package agui

import "time"

// EventType discriminates the downstream protocol's event variants.
type EventType string

const (
	EventTypeRunStarted         EventType = "RUN_STARTED"
	EventTypeRunFinished        EventType = "RUN_FINISHED"
	EventTypeRunError           EventType = "RUN_ERROR"
	EventTypeTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTypeTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTypeTextMessageEnd     EventType = "TEXT_MESSAGE_END"
	EventTypeToolCallStart      EventType = "TOOL_CALL_START"
	EventTypeToolCallArgs       EventType = "TOOL_CALL_ARGS"
	EventTypeToolCallEnd        EventType = "TOOL_CALL_END"
)

// Event is one unit of the downstream protocol stream. The set of
// implementations is closed; consumers switch on the concrete type or on
// Type().
type Event interface {
	isEvent()
	Type() EventType
}

// BaseEvent carries the discriminator and an optional timestamp shared by
// every variant.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Timestamp int64     `json:"timestamp,omitempty"`
}

func (b *BaseEvent) isEvent()        {}
func (b *BaseEvent) Type() EventType { return b.EventType }

func newBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Timestamp: time.Now().UnixMilli()}
}

// Run result statuses reported by RunFinishedEvent.
const (
	RunStatusCompleted       = "completed"
	RunStatusWaitingForTools = "waiting_for_tools"
)

// ToolCallSummary identifies one tool call awaiting an external result.
type ToolCallSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RunResult is the payload of RunFinishedEvent.Result.
type RunResult struct {
	Status    string            `json:"status"`
	ToolCalls []ToolCallSummary `json:"tool_calls,omitempty"`
}

type RunStartedEvent struct {
	BaseEvent
	ThreadID string `json:"thread_id"`
	RunID    string `json:"run_id"`
}

func RunStarted(threadID, runID string) *RunStartedEvent {
	return &RunStartedEvent{
		BaseEvent: newBase(EventTypeRunStarted),
		ThreadID:  threadID,
		RunID:     runID,
	}
}

type RunFinishedEvent struct {
	BaseEvent
	ThreadID string    `json:"thread_id"`
	RunID    string    `json:"run_id"`
	Result   RunResult `json:"result"`
}

func RunFinished(threadID, runID string, result RunResult) *RunFinishedEvent {
	return &RunFinishedEvent{
		BaseEvent: newBase(EventTypeRunFinished),
		ThreadID:  threadID,
		RunID:     runID,
		Result:    result,
	}
}

type RunErrorEvent struct {
	BaseEvent
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func RunError(message, code string) *RunErrorEvent {
	return &RunErrorEvent{
		BaseEvent: newBase(EventTypeRunError),
		Message:   message,
		Code:      code,
	}
}

type TextMessageStartEvent struct {
	BaseEvent
	MessageID string `json:"message_id"`
	Role      string `json:"role"`
}

func TextMessageStart(messageID string) *TextMessageStartEvent {
	return &TextMessageStartEvent{
		BaseEvent: newBase(EventTypeTextMessageStart),
		MessageID: messageID,
		Role:      RoleAssistant,
	}
}

type TextMessageContentEvent struct {
	BaseEvent
	MessageID string `json:"message_id"`
	Delta     string `json:"delta"`
}

func TextMessageContent(messageID, delta string) *TextMessageContentEvent {
	return &TextMessageContentEvent{
		BaseEvent: newBase(EventTypeTextMessageContent),
		MessageID: messageID,
		Delta:     delta,
	}
}

type TextMessageEndEvent struct {
	BaseEvent
	MessageID string `json:"message_id"`
}

func TextMessageEnd(messageID string) *TextMessageEndEvent {
	return &TextMessageEndEvent{
		BaseEvent: newBase(EventTypeTextMessageEnd),
		MessageID: messageID,
	}
}

type ToolCallStartEvent struct {
	BaseEvent
	ToolCallID   string `json:"tool_call_id"`
	ToolCallName string `json:"tool_call_name"`
}

func ToolCallStart(toolCallID, toolCallName string) *ToolCallStartEvent {
	return &ToolCallStartEvent{
		BaseEvent:    newBase(EventTypeToolCallStart),
		ToolCallID:   toolCallID,
		ToolCallName: toolCallName,
	}
}

type ToolCallArgsEvent struct {
	BaseEvent
	ToolCallID string `json:"tool_call_id"`
	Delta      string `json:"delta"`
}

func ToolCallArgs(toolCallID, delta string) *ToolCallArgsEvent {
	return &ToolCallArgsEvent{
		BaseEvent:  newBase(EventTypeToolCallArgs),
		ToolCallID: toolCallID,
		Delta:      delta,
	}
}

type ToolCallEndEvent struct {
	BaseEvent
	ToolCallID string `json:"tool_call_id"`
}

func ToolCallEnd(toolCallID string) *ToolCallEndEvent {
	return &ToolCallEndEvent{
		BaseEvent:  newBase(EventTypeToolCallEnd),
		ToolCallID: toolCallID,
	}
}
