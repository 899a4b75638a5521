package anthropic

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/agentwire/agentwire/pkg/engine"
)

// streamAdapter adapts the Anthropic message stream to engine.EventStream.
// Content blocks are accumulated as they stream so the final message carries
// the complete snapshot.
type streamAdapter struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]

	role       engine.Role
	content    []engine.ContentBlock
	stopReason engine.StopReason

	curText strings.Builder
	curTool *toolAccumulator
}

type toolAccumulator struct {
	id    string
	name  string
	input strings.Builder
}

func newStreamAdapter(stream *ssestream.Stream[anthropic.MessageStreamEventUnion]) *streamAdapter {
	return &streamAdapter{
		stream:     stream,
		role:       engine.RoleAssistant,
		stopReason: engine.StopReasonEndTurn,
	}
}

// Recv returns the next engine event, or io.EOF when the stream is
// exhausted. Stream events that carry no engine-visible change are consumed
// internally.
func (a *streamAdapter) Recv() (engine.Event, error) {
	for {
		if !a.stream.Next() {
			if err := a.stream.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		event := a.stream.Current()

		switch eventVariant := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			return &engine.MessageStart{Role: a.role}, nil

		case anthropic.ContentBlockStartEvent:
			if block, ok := eventVariant.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				a.curTool = &toolAccumulator{
					id:   block.ID,
					name: block.Name,
				}
				return &engine.ToolUseStart{
					ID:   a.curTool.id,
					Name: a.curTool.name,
				}, nil
			}

		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				a.curText.WriteString(deltaVariant.Text)
				return &engine.ContentDelta{Text: deltaVariant.Text}, nil

			case anthropic.InputJSONDelta:
				if a.curTool == nil {
					slog.Warn("Anthropic stream: tool input delta without open tool block")
					continue
				}
				a.curTool.input.WriteString(deltaVariant.PartialJSON)
				return &engine.ToolUseUpdate{
					ID:    a.curTool.id,
					Name:  a.curTool.name,
					Input: a.curTool.input.String(),
				}, nil
			}

		case anthropic.ContentBlockStopEvent:
			a.finishBlock()

		case anthropic.MessageDeltaEvent:
			a.stopReason = convertStopReason(eventVariant.Delta.StopReason)

		case anthropic.MessageStopEvent:
			a.finishBlock()
			return &engine.MessageComplete{
				Role:       a.role,
				Content:    a.content,
				StopReason: a.stopReason,
			}, nil
		}
	}
}

// finishBlock moves the active accumulator into the snapshot content.
func (a *streamAdapter) finishBlock() {
	if a.curTool != nil {
		var input map[string]any
		if raw := a.curTool.input.String(); raw != "" {
			_ = json.Unmarshal([]byte(raw), &input)
		}
		if input == nil {
			input = make(map[string]any)
		}
		a.content = append(a.content, engine.ContentBlock{
			ToolUse: &engine.ToolUse{
				ID:    a.curTool.id,
				Name:  a.curTool.name,
				Input: input,
			},
		})
		a.curTool = nil
		return
	}
	if a.curText.Len() > 0 {
		a.content = append(a.content, engine.ContentBlock{Text: a.curText.String()})
		a.curText.Reset()
	}
}

func convertStopReason(reason anthropic.StopReason) engine.StopReason {
	switch reason {
	case anthropic.StopReasonToolUse:
		return engine.StopReasonToolUse
	case anthropic.StopReasonMaxTokens:
		return engine.StopReasonMaxTokens
	case anthropic.StopReasonStopSequence:
		return engine.StopReasonStopSequence
	default:
		return engine.StopReasonEndTurn
	}
}

// Close closes the underlying stream.
func (a *streamAdapter) Close() {
	if a.stream != nil {
		a.stream.Close()
	}
}
