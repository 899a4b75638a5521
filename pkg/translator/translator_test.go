package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentwire/agentwire/pkg/agui"
	"github.com/agentwire/agentwire/pkg/engine"
	"github.com/agentwire/agentwire/pkg/runstate"
)

func translateAll(t *testing.T, st *runstate.State, events ...engine.Event) []agui.Event {
	t.Helper()
	var out []agui.Event
	for _, ev := range events {
		out = append(out, Translate(ev, st)...)
	}
	return out
}

func eventTypes(events []agui.Event) []agui.EventType {
	types := make([]agui.EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type()
	}
	return types
}

func TestTranslateTextStreaming(t *testing.T) {
	t.Parallel()

	st := runstate.New("t1", "r1")
	out := translateAll(t, st,
		&engine.MessageStart{Role: engine.RoleAssistant},
		&engine.ContentDelta{Text: "Hello"},
		&engine.ContentDelta{Text: " world"},
	)

	require.Equal(t, []agui.EventType{
		agui.EventTypeTextMessageStart,
		agui.EventTypeTextMessageContent,
		agui.EventTypeTextMessageContent,
	}, eventTypes(out))

	start := out[0].(*agui.TextMessageStartEvent)
	assert.Equal(t, "assistant", start.Role)
	assert.NotEmpty(t, start.MessageID)
	assert.Equal(t, start.MessageID, st.CurrentMessageID)

	first := out[1].(*agui.TextMessageContentEvent)
	assert.Equal(t, start.MessageID, first.MessageID)
	assert.Equal(t, "Hello", first.Delta)
	assert.Equal(t, " world", out[2].(*agui.TextMessageContentEvent).Delta)
}

func TestTranslateContentDeltaOpensMessage(t *testing.T) {
	t.Parallel()

	// A delta with no prior message-start still opens the lifecycle.
	st := runstate.New("t1", "r1")
	out := Translate(&engine.ContentDelta{Text: "hi"}, st)

	require.Equal(t, []agui.EventType{
		agui.EventTypeTextMessageStart,
		agui.EventTypeTextMessageContent,
	}, eventTypes(out))
}

func TestTranslateEmptyDeltaDropped(t *testing.T) {
	t.Parallel()

	st := runstate.New("t1", "r1")
	assert.Empty(t, Translate(&engine.ContentDelta{Text: ""}, st))
	assert.Empty(t, st.CurrentMessageID)
}

func TestTranslateMessageStartIdempotent(t *testing.T) {
	t.Parallel()

	st := runstate.New("t1", "r1")
	first := Translate(&engine.MessageStart{Role: engine.RoleAssistant}, st)
	require.Len(t, first, 1)

	// A second start within the same open message emits nothing.
	assert.Empty(t, Translate(&engine.MessageStart{Role: engine.RoleAssistant}, st))
}

func TestTranslateToolUseExplicitStart(t *testing.T) {
	t.Parallel()

	st := runstate.New("t1", "r1")
	out := Translate(&engine.ToolUseStart{ID: "call_1", Name: "get_weather"}, st)

	require.Equal(t, []agui.EventType{agui.EventTypeToolCallStart}, eventTypes(out))
	start := out[0].(*agui.ToolCallStartEvent)
	assert.Equal(t, "call_1", start.ToolCallID)
	assert.Equal(t, "get_weather", start.ToolCallName)

	// A duplicate announcement of the same id is swallowed.
	assert.Empty(t, Translate(&engine.ToolUseStart{ID: "call_1", Name: "get_weather"}, st))
}

func TestTranslateToolUseUpdateFirstSighting(t *testing.T) {
	t.Parallel()

	// When the streaming-update shape arrives before any explicit start,
	// both the start and the accumulated args are emitted together.
	st := runstate.New("t1", "r1")
	out := Translate(&engine.ToolUseUpdate{ID: "call_1", Name: "search", Input: `{"q":"go"}`}, st)

	require.Equal(t, []agui.EventType{
		agui.EventTypeToolCallStart,
		agui.EventTypeToolCallArgs,
	}, eventTypes(out))
	assert.Equal(t, `{"q":"go"}`, out[1].(*agui.ToolCallArgsEvent).Delta)

	// Later updates only refresh the tracked input.
	assert.Empty(t, Translate(&engine.ToolUseUpdate{ID: "call_1", Name: "search", Input: `{"q":"golang"}`}, st))
	assert.Equal(t, `{"q":"golang"}`, st.Tool("call_1").Input)
}

func TestTranslateToolUseUpdateAfterStart(t *testing.T) {
	t.Parallel()

	st := runstate.New("t1", "r1")
	Translate(&engine.ToolUseStart{ID: "call_1", Name: "search"}, st)

	out := Translate(&engine.ToolUseUpdate{ID: "call_1", Name: "search", Input: `{"q":"go"}`}, st)
	assert.Empty(t, out)
	assert.Equal(t, `{"q":"go"}`, st.Tool("call_1").Input)
	assert.False(t, st.Tool("call_1").ArgsEmitted)
}

func TestTranslateSnapshotClosesToolCalls(t *testing.T) {
	t.Parallel()

	st := runstate.New("t1", "r1")
	Translate(&engine.ToolUseStart{ID: "call_1", Name: "search"}, st)
	Translate(&engine.ToolUseUpdate{ID: "call_1", Name: "search", Input: `{"q":"go"}`}, st)

	out := Translate(&engine.MessageComplete{
		Role: engine.RoleAssistant,
		Content: []engine.ContentBlock{
			{ToolUse: &engine.ToolUse{ID: "call_1", Name: "search", Input: map[string]any{"q": "go"}}},
		},
		StopReason: engine.StopReasonToolUse,
	}, st)

	require.Equal(t, []agui.EventType{
		agui.EventTypeToolCallArgs,
		agui.EventTypeToolCallEnd,
	}, eventTypes(out))
	assert.Equal(t, `{"q":"go"}`, out[0].(*agui.ToolCallArgsEvent).Delta)
	assert.Equal(t, "call_1", out[1].(*agui.ToolCallEndEvent).ToolCallID)
}

func TestTranslateSnapshotOnlyToolCall(t *testing.T) {
	t.Parallel()

	// A tool call first seen in the snapshot gets the full bracket.
	st := runstate.New("t1", "r1")
	out := Translate(&engine.MessageComplete{
		Role: engine.RoleAssistant,
		Content: []engine.ContentBlock{
			{Text: "Checking."},
			{ToolUse: &engine.ToolUse{ID: "call_9", Name: "lookup", Input: map[string]any{"key": "v"}}},
		},
		StopReason: engine.StopReasonToolUse,
	}, st)

	require.Equal(t, []agui.EventType{
		agui.EventTypeToolCallStart,
		agui.EventTypeToolCallArgs,
		agui.EventTypeToolCallEnd,
	}, eventTypes(out))
	assert.Equal(t, `{"key":"v"}`, out[1].(*agui.ToolCallArgsEvent).Delta)
}

func TestTranslateSnapshotGeneratesMissingID(t *testing.T) {
	t.Parallel()

	st := runstate.New("t1", "r1")
	out := Translate(&engine.MessageComplete{
		Role: engine.RoleAssistant,
		Content: []engine.ContentBlock{
			{ToolUse: &engine.ToolUse{Name: "lookup"}},
		},
		StopReason: engine.StopReasonToolUse,
	}, st)

	require.Len(t, out, 3)
	start := out[0].(*agui.ToolCallStartEvent)
	assert.NotEmpty(t, start.ToolCallID)
	assert.Equal(t, "{}", out[1].(*agui.ToolCallArgsEvent).Delta)
}

func TestTranslateSnapshotEmptyInputKeepsStreamedArgs(t *testing.T) {
	t.Parallel()

	// An empty snapshot input must not clobber input streamed earlier.
	st := runstate.New("t1", "r1")
	Translate(&engine.ToolUseUpdate{ID: "call_1", Name: "search", Input: `{"q":"go"}`}, st)

	out := Translate(&engine.MessageComplete{
		Role: engine.RoleAssistant,
		Content: []engine.ContentBlock{
			{ToolUse: &engine.ToolUse{ID: "call_1", Name: "search", Input: map[string]any{}}},
		},
		StopReason: engine.StopReasonToolUse,
	}, st)

	require.Equal(t, []agui.EventType{agui.EventTypeToolCallEnd}, eventTypes(out))
	assert.Equal(t, `{"q":"go"}`, st.Tool("call_1").Input)
}

func TestTranslateOncePerIDAcrossAllShapes(t *testing.T) {
	t.Parallel()

	// All three upstream shapes for the same id produce exactly one start,
	// one args and one end.
	st := runstate.New("t1", "r1")
	snapshot := &engine.MessageComplete{
		Role: engine.RoleAssistant,
		Content: []engine.ContentBlock{
			{ToolUse: &engine.ToolUse{ID: "call_1", Name: "search", Input: map[string]any{"q": "go"}}},
		},
		StopReason: engine.StopReasonToolUse,
	}
	out := translateAll(t, st,
		&engine.ToolUseStart{ID: "call_1", Name: "search"},
		&engine.ToolUseUpdate{ID: "call_1", Name: "search", Input: `{"q":"go"}`},
		snapshot,
		snapshot,
	)

	counts := map[agui.EventType]int{}
	for _, ev := range out {
		counts[ev.Type()]++
	}
	assert.Equal(t, 1, counts[agui.EventTypeToolCallStart])
	assert.Equal(t, 1, counts[agui.EventTypeToolCallArgs])
	assert.Equal(t, 1, counts[agui.EventTypeToolCallEnd])
}

func TestTranslateMixedTextAndTools(t *testing.T) {
	t.Parallel()

	st := runstate.New("t1", "r1")
	out := translateAll(t, st,
		&engine.MessageStart{Role: engine.RoleAssistant},
		&engine.ContentDelta{Text: "Let me check."},
		&engine.ToolUseStart{ID: "call_1", Name: "get_weather"},
		&engine.ToolUseUpdate{ID: "call_1", Name: "get_weather", Input: `{"city":"Austin"}`},
		&engine.MessageComplete{
			Role: engine.RoleAssistant,
			Content: []engine.ContentBlock{
				{Text: "Let me check."},
				{ToolUse: &engine.ToolUse{ID: "call_1", Name: "get_weather", Input: map[string]any{"city": "Austin"}}},
			},
			StopReason: engine.StopReasonToolUse,
		},
	)

	require.Equal(t, []agui.EventType{
		agui.EventTypeTextMessageStart,
		agui.EventTypeTextMessageContent,
		agui.EventTypeToolCallStart,
		agui.EventTypeToolCallArgs,
		agui.EventTypeToolCallEnd,
	}, eventTypes(out))
}
