package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/agentwire/agentwire/pkg/engine"
)

// convertMessages converts engine messages to Anthropic message params.
// System entries are skipped here; they ride on the top-level System field.
//
// Anthropic requires tool_result blocks to arrive in the user message that
// immediately follows the assistant tool_use turn, so consecutive same-role
// turns are merged.
func convertMessages(messages []engine.Message) []anthropic.MessageParam {
	var converted []anthropic.MessageParam

	for i := range messages {
		msg := &messages[i]
		if msg.Role == engine.RoleSystem {
			continue
		}

		blocks := convertContent(msg.Content)
		if len(blocks) == 0 {
			continue
		}

		role := anthropic.MessageParamRoleUser
		if msg.Role == engine.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}

		if n := len(converted); n > 0 && converted[n-1].Role == role {
			converted[n-1].Content = append(converted[n-1].Content, blocks...)
			continue
		}

		converted = append(converted, anthropic.MessageParam{
			Role:    role,
			Content: blocks,
		})
	}

	return converted
}

func convertContent(content []engine.ContentBlock) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion

	for _, block := range content {
		switch {
		case block.ToolUse != nil:
			input := block.ToolUse.Input
			if input == nil {
				input = make(map[string]any)
			}
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    block.ToolUse.ID,
					Name:  block.ToolUse.Name,
					Input: input,
				},
			})

		case block.ToolResult != nil:
			isError := block.ToolResult.Status == engine.ToolResultError
			blocks = append(blocks, anthropic.NewToolResultBlock(
				block.ToolResult.ToolUseID,
				block.ToolResult.Content,
				isError,
			))

		case strings.TrimSpace(block.Text) != "":
			blocks = append(blocks, anthropic.NewTextBlock(block.Text))
		}
	}

	return blocks
}

// extractSystemBlocks converts system-role entries into Anthropic system text
// blocks for the top-level System field.
func extractSystemBlocks(messages []engine.Message) []anthropic.TextBlockParam {
	var systemBlocks []anthropic.TextBlockParam
	for i := range messages {
		msg := &messages[i]
		if msg.Role != engine.RoleSystem {
			continue
		}
		for _, block := range msg.Content {
			if txt := strings.TrimSpace(block.Text); txt != "" {
				systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: txt})
			}
		}
	}
	return systemBlocks
}

func convertTools(tools []engine.Tool) ([]anthropic.ToolUnionParam, error) {
	toolParams := make([]anthropic.ToolParam, len(tools))
	for i, tool := range tools {
		inputSchema, err := convertParametersToSchema(tool.Parameters)
		if err != nil {
			return nil, fmt.Errorf("converting schema for tool %s: %w", tool.Name, err)
		}
		toolParams[i] = anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: inputSchema,
		}
	}

	anthropicTools := make([]anthropic.ToolUnionParam, len(toolParams))
	for i := range toolParams {
		anthropicTools[i] = anthropic.ToolUnionParam{OfTool: &toolParams[i]}
	}
	return anthropicTools, nil
}

// convertParametersToSchema maps a JSON-schema map onto the SDK's input
// schema param via a JSON round trip.
func convertParametersToSchema(params map[string]any) (anthropic.ToolInputSchemaParam, error) {
	var schema anthropic.ToolInputSchemaParam

	data, err := json.Marshal(params)
	if err != nil {
		return anthropic.ToolInputSchemaParam{}, err
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		return anthropic.ToolInputSchemaParam{}, err
	}
	return schema, nil
}
