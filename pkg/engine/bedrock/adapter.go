package bedrock

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentwire/agentwire/pkg/engine"
)

// streamAdapter adapts Bedrock's ConverseStreamEventStream to
// engine.EventStream. It accumulates content blocks as they stream so the
// final message carries the complete snapshot.
type streamAdapter struct {
	stream *bedrockruntime.ConverseStreamEventStream

	role    engine.Role
	content []engine.ContentBlock

	curText strings.Builder
	curTool *toolAccumulator
}

type toolAccumulator struct {
	id    string
	name  string
	input strings.Builder
}

func newStreamAdapter(stream *bedrockruntime.ConverseStreamEventStream) *streamAdapter {
	return &streamAdapter{
		stream: stream,
		role:   engine.RoleAssistant,
	}
}

// Recv returns the next engine event, or io.EOF when the stream is
// exhausted. Stream events that carry no engine-visible change are consumed
// internally.
func (a *streamAdapter) Recv() (engine.Event, error) {
	for {
		event, ok := <-a.stream.Events()
		if !ok {
			if err := a.stream.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		switch ev := event.(type) {
		case *types.ConverseStreamOutputMemberMessageStart:
			if ev.Value.Role == types.ConversationRoleUser {
				a.role = engine.RoleUser
			}
			return &engine.MessageStart{Role: a.role}, nil

		case *types.ConverseStreamOutputMemberContentBlockStart:
			if start, ok := ev.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
				a.curTool = &toolAccumulator{
					id:   derefString(start.Value.ToolUseId),
					name: derefString(start.Value.Name),
				}
				return &engine.ToolUseStart{
					ID:   a.curTool.id,
					Name: a.curTool.name,
				}, nil
			}

		case *types.ConverseStreamOutputMemberContentBlockDelta:
			switch delta := ev.Value.Delta.(type) {
			case *types.ContentBlockDeltaMemberText:
				a.curText.WriteString(delta.Value)
				return &engine.ContentDelta{Text: delta.Value}, nil

			case *types.ContentBlockDeltaMemberToolUse:
				if a.curTool == nil {
					slog.Warn("Bedrock stream: tool input delta without open tool block")
					continue
				}
				a.curTool.input.WriteString(derefString(delta.Value.Input))
				return &engine.ToolUseUpdate{
					ID:    a.curTool.id,
					Name:  a.curTool.name,
					Input: a.curTool.input.String(),
				}, nil
			}

		case *types.ConverseStreamOutputMemberContentBlockStop:
			a.finishBlock()

		case *types.ConverseStreamOutputMemberMessageStop:
			a.finishBlock()
			return &engine.MessageComplete{
				Role:       a.role,
				Content:    a.content,
				StopReason: convertStopReason(ev.Value.StopReason),
			}, nil

		case *types.ConverseStreamOutputMemberMetadata:
			if usage := ev.Value.Usage; usage != nil {
				slog.Debug("Bedrock stream: usage",
					"input_tokens", derefInt32(usage.InputTokens),
					"output_tokens", derefInt32(usage.OutputTokens))
			}
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

func convertStopReason(reason types.StopReason) engine.StopReason {
	switch reason {
	case types.StopReasonToolUse:
		return engine.StopReasonToolUse
	case types.StopReasonMaxTokens:
		return engine.StopReasonMaxTokens
	case types.StopReasonStopSequence:
		return engine.StopReasonStopSequence
	default:
		return engine.StopReasonEndTurn
	}
}

// Close closes the underlying stream.
func (a *streamAdapter) Close() {
	if a.stream != nil {
		_ = a.stream.Close()
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt32(i *int32) int32 {
	if i == nil {
		return 0
	}
	return *i
}
