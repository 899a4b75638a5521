package engine

// StopReason reports why the engine stopped generating a turn.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonToolUse      StopReason = "tool_use"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
)

// Event is one unit of the engine's streaming output. The recognized shapes
// form a closed union; providers decode their wire formats into these at the
// stream boundary and drop anything they cannot map, so unrecognized
// upstream shapes never reach the translator.
type Event interface {
	isEvent()
}

// MessageStart marks the beginning of an assistant turn.
type MessageStart struct {
	Role Role
}

// ContentDelta carries an increment of assistant text.
type ContentDelta struct {
	Text string
}

// ToolUseStart announces a tool call. Input holds whatever portion of the
// argument JSON was available when the call was first described, often none.
type ToolUseStart struct {
	ID    string
	Name  string
	Input string
}

// ToolUseUpdate revises an in-flight tool call. Input is the argument JSON
// accumulated so far, not an increment.
type ToolUseUpdate struct {
	ID    string
	Name  string
	Input string
}

// MessageComplete is the authoritative snapshot of a finished turn: every
// content item the engine produced, plus the stop reason.
type MessageComplete struct {
	Role       Role
	Content    []ContentBlock
	StopReason StopReason
}

func (*MessageStart) isEvent()    {}
func (*ContentDelta) isEvent()    {}
func (*ToolUseStart) isEvent()    {}
func (*ToolUseUpdate) isEvent()   {}
func (*MessageComplete) isEvent() {}
