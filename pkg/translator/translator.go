// Package translator derives well-formed downstream protocol events from the
// engine's noisy upstream stream.
//
// Three different upstream shapes can describe the same tool call: an
// explicit start, a streaming input update and the final turn snapshot. The
// translator collapses them into exactly one TOOL_CALL_START, at most one
// TOOL_CALL_ARGS and at most one TOOL_CALL_END per tool_call_id, keyed on
// the run state's pending-tool set.
package translator

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/agentwire/agentwire/pkg/agui"
	"github.com/agentwire/agentwire/pkg/engine"
	"github.com/agentwire/agentwire/pkg/runstate"
)

// Translate maps one upstream event to zero or more downstream events,
// mutating the run state in place. Unrecognized events produce nothing.
func Translate(ev engine.Event, st *runstate.State) []agui.Event {
	switch e := ev.(type) {
	case *engine.MessageStart:
		return openMessage(st, nil)

	case *engine.ContentDelta:
		// Downstream forbids empty deltas.
		if e.Text == "" {
			return nil
		}
		out := openMessage(st, nil)
		return append(out, agui.TextMessageContent(st.CurrentMessageID, e.Text))

	case *engine.ToolUseStart:
		if !st.TrackTool(e.ID, e.Name, e.Input) {
			// Duplicate announcement; already tracked.
			return nil
		}
		return []agui.Event{agui.ToolCallStart(e.ID, e.Name)}

	case *engine.ToolUseUpdate:
		if tool := st.Tool(e.ID); tool != nil {
			tool.Input = e.Input
			return nil
		}
		// First sighting through the streaming shape: the complete input
		// seen so far is emitted once, not per chunk.
		st.TrackTool(e.ID, e.Name, e.Input)
		st.Tool(e.ID).ArgsEmitted = true
		return []agui.Event{
			agui.ToolCallStart(e.ID, e.Name),
			agui.ToolCallArgs(e.ID, argsJSON(e.Input)),
		}

	case *engine.MessageComplete:
		return closeToolCalls(e, st)

	default:
		return nil
	}
}

// openMessage starts a text-message lifecycle if none is open, appending the
// TEXT_MESSAGE_START to out.
func openMessage(st *runstate.State, out []agui.Event) []agui.Event {
	if st.CurrentMessageID != "" {
		return out
	}
	st.CurrentMessageID = uuid.NewString()
	return append(out, agui.TextMessageStart(st.CurrentMessageID))
}

// closeToolCalls treats the turn snapshot as authoritative confirmation that
// the engine finished describing its tool calls, emitting the missing args
// and end brackets for each tool-use item.
func closeToolCalls(snapshot *engine.MessageComplete, st *runstate.State) []agui.Event {
	var out []agui.Event
	for _, block := range snapshot.Content {
		tu := block.ToolUse
		if tu == nil {
			continue
		}
		id := tu.ID
		if id == "" {
			id = uuid.NewString()
		}
		input := marshalInput(tu.Input)
		if st.TrackTool(id, tu.Name, input) {
			out = append(out, agui.ToolCallStart(id, tu.Name))
		}
		tool := st.Tool(id)
		if input != "" {
			tool.Input = input
		}
		if !tool.ArgsEmitted {
			tool.ArgsEmitted = true
			out = append(out, agui.ToolCallArgs(id, argsJSON(tool.Input)))
		}
		if !tool.Ended {
			tool.Ended = true
			out = append(out, agui.ToolCallEnd(id))
		}
	}
	return out
}

func marshalInput(input map[string]any) string {
	if len(input) == 0 {
		return ""
	}
	data, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	return string(data)
}

func argsJSON(input string) string {
	if input == "" {
		return "{}"
	}
	return input
}
