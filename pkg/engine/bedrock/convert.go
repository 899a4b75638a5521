package bedrock

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentwire/agentwire/pkg/engine"
)

// convertMessages converts engine messages to Bedrock Message format.
// Returns (messages, system content blocks).
//
// Bedrock's Converse API requires that:
//  1. Tool results immediately follow the assistant message with tool_use
//  2. Consecutive tool results are grouped into a single user message
func convertMessages(messages []engine.Message) ([]types.Message, []types.SystemContentBlock) {
	var bedrockMessages []types.Message
	var systemBlocks []types.SystemContentBlock

	for i := range messages {
		msg := &messages[i]

		if msg.Role == engine.RoleSystem {
			for _, block := range msg.Content {
				if strings.TrimSpace(block.Text) != "" {
					systemBlocks = append(systemBlocks, &types.SystemContentBlockMemberText{
						Value: block.Text,
					})
				}
			}
			continue
		}

		role := types.ConversationRoleUser
		if msg.Role == engine.RoleAssistant {
			role = types.ConversationRoleAssistant
		}

		blocks := convertContent(msg.Content)
		if len(blocks) == 0 {
			continue
		}

		// Merge into the previous turn when the roles match so grouped tool
		// results stay inside one user message.
		if n := len(bedrockMessages); n > 0 && bedrockMessages[n-1].Role == role {
			bedrockMessages[n-1].Content = append(bedrockMessages[n-1].Content, blocks...)
			continue
		}

		bedrockMessages = append(bedrockMessages, types.Message{
			Role:    role,
			Content: blocks,
		})
	}

	return bedrockMessages, systemBlocks
}

func convertContent(content []engine.ContentBlock) []types.ContentBlock {
	var blocks []types.ContentBlock

	for _, block := range content {
		switch {
		case block.ToolUse != nil:
			input := block.ToolUse.Input
			if input == nil {
				input = make(map[string]any)
			}
			blocks = append(blocks, &types.ContentBlockMemberToolUse{
				Value: types.ToolUseBlock{
					ToolUseId: aws.String(block.ToolUse.ID),
					Name:      aws.String(block.ToolUse.Name),
					Input:     document.NewLazyDocument(input),
				},
			})

		case block.ToolResult != nil:
			status := types.ToolResultStatusSuccess
			if block.ToolResult.Status == engine.ToolResultError {
				status = types.ToolResultStatusError
			}
			blocks = append(blocks, &types.ContentBlockMemberToolResult{
				Value: types.ToolResultBlock{
					ToolUseId: aws.String(block.ToolResult.ToolUseID),
					Content: []types.ToolResultContentBlock{
						&types.ToolResultContentBlockMemberText{
							Value: block.ToolResult.Content,
						},
					},
					Status: status,
				},
			})

		case strings.TrimSpace(block.Text) != "":
			blocks = append(blocks, &types.ContentBlockMemberText{
				Value: block.Text,
			})
		}
	}

	return blocks
}

// convertToolConfig converts tool descriptors to Bedrock ToolConfiguration.
// Tool choice stays on auto so the model decides whether generation stops on
// a tool request.
func convertToolConfig(tools []engine.Tool) *types.ToolConfiguration {
	if len(tools) == 0 {
		return nil
	}

	toolSpecs := make([]types.Tool, len(tools))
	for i, tool := range tools {
		toolSpecs[i] = &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(tool.Name),
				Description: aws.String(tool.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(tool.Parameters),
				},
			},
		}
	}

	return &types.ToolConfiguration{
		Tools: toolSpecs,
		ToolChoice: &types.ToolChoiceMemberAuto{
			Value: types.AutoToolChoice{},
		},
	}
}
