package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/agentwire/agentwire/pkg/agui"
	"github.com/agentwire/agentwire/pkg/engine"
)

// ConvertMessage maps one inbound protocol message to an engine-native
// conversation entry. The mapping is deterministic and role-indexed; only an
// assistant tool call with malformed argument JSON fails.
func ConvertMessage(msg agui.Message) (engine.Message, error) {
	switch msg.Role {
	case agui.RoleUser:
		return engine.TextMessage(engine.RoleUser, msg.Content), nil

	case agui.RoleAssistant:
		var blocks []engine.ContentBlock
		if msg.Content != "" {
			blocks = append(blocks, engine.ContentBlock{Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			input, err := parseArguments(tc.Function.Arguments)
			if err != nil {
				return engine.Message{}, fmt.Errorf("tool call %q: malformed arguments: %w", tc.ID, err)
			}
			blocks = append(blocks, engine.ContentBlock{ToolUse: &engine.ToolUse{
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: input,
			}})
		}
		return engine.Message{Role: engine.RoleAssistant, Content: blocks}, nil

	case agui.RoleTool:
		status := engine.ToolResultSuccess
		if msg.Error != "" {
			status = engine.ToolResultError
		}
		// Tool results are presented to the engine as a user-role turn.
		return engine.ToolResultMessage(engine.ToolResult{
			ToolUseID: msg.ToolCallID,
			Content:   msg.Content,
			Status:    status,
		}), nil

	case agui.RoleSystem:
		return engine.TextMessage(engine.RoleSystem, msg.Content), nil

	default:
		return engine.TextMessage(engine.Role(msg.Role), msg.Content), nil
	}
}

// BuildHistory converts the inbound conversation into the engine history for
// a new run.
//
// When the inbound turn carries tool results, the conversation is
// reconstructed: system messages are excluded from the replay, and if no
// assistant turn in the supplied history shows a matching tool-use block,
// one is synthesized so the engine accepts the results.
func BuildHistory(messages []agui.Message, declared []agui.Tool) ([]engine.Message, error) {
	var toolMessages []agui.Message
	for _, msg := range messages {
		if msg.Role == agui.RoleTool {
			toolMessages = append(toolMessages, msg)
		}
	}

	if len(toolMessages) == 0 {
		history := make([]engine.Message, 0, len(messages))
		for _, msg := range messages {
			converted, err := ConvertMessage(msg)
			if err != nil {
				return nil, err
			}
			history = append(history, converted)
		}
		return history, nil
	}

	var history []engine.Message
	for _, msg := range messages {
		if msg.Role == agui.RoleTool || msg.Role == agui.RoleSystem {
			continue
		}
		converted, err := ConvertMessage(msg)
		if err != nil {
			return nil, err
		}
		history = append(history, converted)
	}

	if !hasToolUse(history) {
		history = append(history, placeholderToolUse(toolMessages, declared))
	}

	// Group all results into one user turn, the layout engines require
	// after an assistant tool-use turn.
	var results []engine.ContentBlock
	for _, msg := range toolMessages {
		status := engine.ToolResultSuccess
		if msg.Error != "" {
			status = engine.ToolResultError
		}
		results = append(results, engine.ContentBlock{ToolResult: &engine.ToolResult{
			ToolUseID: msg.ToolCallID,
			Content:   msg.Content,
			Status:    status,
		}})
	}
	history = append(history, engine.Message{Role: engine.RoleUser, Content: results})

	return history, nil
}

func hasToolUse(history []engine.Message) bool {
	for _, msg := range history {
		if msg.Role != engine.RoleAssistant {
			continue
		}
		for _, block := range msg.Content {
			if block.ToolUse != nil {
				return true
			}
		}
	}
	return false
}

// placeholderToolUse fabricates the assistant tool-use turn a tool result
// refers to when the supplied history lacks one. The tool name is guessed
// from the first declared tool; this reconstructs missing history rather
// than any protocol-mandated behavior.
func placeholderToolUse(toolMessages []agui.Message, declared []agui.Tool) engine.Message {
	name := "unknown"
	if len(declared) > 0 {
		name = declared[0].Name
	}
	slog.Warn("Synthesizing assistant tool-use turn for orphaned tool results",
		"tool_name", name, "result_count", len(toolMessages))

	blocks := make([]engine.ContentBlock, 0, len(toolMessages))
	for _, msg := range toolMessages {
		blocks = append(blocks, engine.ContentBlock{ToolUse: &engine.ToolUse{
			ID:    msg.ToolCallID,
			Name:  name,
			Input: map[string]any{},
		}})
	}
	return engine.Message{Role: engine.RoleAssistant, Content: blocks}
}

// ConvertTools validates each declared tool's parameter schema and maps it
// to an engine descriptor.
func ConvertTools(declared []agui.Tool) ([]engine.Tool, error) {
	if len(declared) == 0 {
		return nil, nil
	}
	out := make([]engine.Tool, 0, len(declared))
	for _, tool := range declared {
		params, err := parametersToMap(tool.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", tool.Name, err)
		}
		if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(params)); err != nil {
			return nil, fmt.Errorf("tool %q: invalid parameter schema: %w", tool.Name, err)
		}
		out = append(out, engine.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  params,
		})
	}
	return out, nil
}

func parametersToMap(params any) (map[string]any, error) {
	if params == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}
	if m, ok := params.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("serializing parameter schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parameter schema is not an object: %w", err)
	}
	return m, nil
}

func parseArguments(arguments string) (map[string]any, error) {
	if arguments == "" {
		return map[string]any{}, nil
	}
	var input map[string]any
	if err := json.Unmarshal([]byte(arguments), &input); err != nil {
		return nil, err
	}
	return input, nil
}
