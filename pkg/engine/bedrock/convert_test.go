package bedrock

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentwire/agentwire/pkg/engine"
)

func TestConvertMessagesExtractsSystem(t *testing.T) {
	t.Parallel()

	msgs, system := convertMessages([]engine.Message{
		engine.TextMessage(engine.RoleSystem, "be brief"),
		engine.TextMessage(engine.RoleUser, "hi"),
	})

	require.Len(t, system, 1)
	assert.Equal(t, "be brief", system[0].(*types.SystemContentBlockMemberText).Value)

	require.Len(t, msgs, 1)
	assert.Equal(t, types.ConversationRoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content[0].(*types.ContentBlockMemberText).Value)
}

func TestConvertMessagesToolRoundTrip(t *testing.T) {
	t.Parallel()

	msgs, _ := convertMessages([]engine.Message{
		engine.TextMessage(engine.RoleUser, "weather?"),
		{Role: engine.RoleAssistant, Content: []engine.ContentBlock{
			{ToolUse: &engine.ToolUse{ID: "call_1", Name: "get_weather", Input: map[string]any{"city": "Austin"}}},
		}},
		engine.ToolResultMessage(engine.ToolResult{
			ToolUseID: "call_1",
			Content:   "sunny",
			Status:    engine.ToolResultSuccess,
		}),
	})

	require.Len(t, msgs, 3)

	toolUse := msgs[1].Content[0].(*types.ContentBlockMemberToolUse).Value
	assert.Equal(t, "call_1", *toolUse.ToolUseId)
	assert.Equal(t, "get_weather", *toolUse.Name)

	assert.Equal(t, types.ConversationRoleUser, msgs[2].Role)
	result := msgs[2].Content[0].(*types.ContentBlockMemberToolResult).Value
	assert.Equal(t, "call_1", *result.ToolUseId)
	assert.Equal(t, types.ToolResultStatusSuccess, result.Status)
	assert.Equal(t, "sunny", result.Content[0].(*types.ToolResultContentBlockMemberText).Value)
}

func TestConvertMessagesMergesConsecutiveSameRole(t *testing.T) {
	t.Parallel()

	// Two tool-result turns collapse into one user message, the shape the
	// Converse API requires after a tool-use turn.
	msgs, _ := convertMessages([]engine.Message{
		{Role: engine.RoleAssistant, Content: []engine.ContentBlock{
			{ToolUse: &engine.ToolUse{ID: "call_1", Name: "a", Input: map[string]any{}}},
			{ToolUse: &engine.ToolUse{ID: "call_2", Name: "b", Input: map[string]any{}}},
		}},
		engine.ToolResultMessage(engine.ToolResult{ToolUseID: "call_1", Content: "one", Status: engine.ToolResultSuccess}),
		engine.ToolResultMessage(engine.ToolResult{ToolUseID: "call_2", Content: "two", Status: engine.ToolResultSuccess}),
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, types.ConversationRoleUser, msgs[1].Role)
	assert.Len(t, msgs[1].Content, 2)
}

func TestConvertMessagesErrorResultStatus(t *testing.T) {
	t.Parallel()

	msgs, _ := convertMessages([]engine.Message{
		engine.ToolResultMessage(engine.ToolResult{
			ToolUseID: "call_1",
			Content:   "timeout",
			Status:    engine.ToolResultError,
		}),
	})

	require.Len(t, msgs, 1)
	result := msgs[0].Content[0].(*types.ContentBlockMemberToolResult).Value
	assert.Equal(t, types.ToolResultStatusError, result.Status)
}

func TestConvertToolConfig(t *testing.T) {
	t.Parallel()

	cfg := convertToolConfig([]engine.Tool{{
		Name:        "get_weather",
		Description: "Look up the weather",
		Parameters:  map[string]any{"type": "object"},
	}})

	require.NotNil(t, cfg)
	require.Len(t, cfg.Tools, 1)

	spec := cfg.Tools[0].(*types.ToolMemberToolSpec).Value
	assert.Equal(t, "get_weather", *spec.Name)
	assert.Equal(t, "Look up the weather", *spec.Description)

	_, auto := cfg.ToolChoice.(*types.ToolChoiceMemberAuto)
	assert.True(t, auto, "tool choice stays on auto")

	assert.Nil(t, convertToolConfig(nil))
}

func TestAdapterFinishBlock(t *testing.T) {
	t.Parallel()

	a := &streamAdapter{role: engine.RoleAssistant}
	a.curText.WriteString("Hello")
	a.finishBlock()

	a.curTool = &toolAccumulator{id: "call_1", name: "search"}
	a.curTool.input.WriteString(`{"q":"go"}`)
	a.finishBlock()

	require.Len(t, a.content, 2)
	assert.Equal(t, "Hello", a.content[0].Text)
	require.NotNil(t, a.content[1].ToolUse)
	assert.Equal(t, map[string]any{"q": "go"}, a.content[1].ToolUse.Input)
}

func TestAdapterFinishBlockBadJSON(t *testing.T) {
	t.Parallel()

	a := &streamAdapter{role: engine.RoleAssistant}
	a.curTool = &toolAccumulator{id: "call_1", name: "search"}
	a.curTool.input.WriteString(`{truncated`)
	a.finishBlock()

	require.Len(t, a.content, 1)
	assert.Equal(t, map[string]any{}, a.content[0].ToolUse.Input, "unparseable input degrades to an empty object")
}

func TestConvertStopReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, engine.StopReasonToolUse, convertStopReason(types.StopReasonToolUse))
	assert.Equal(t, engine.StopReasonEndTurn, convertStopReason(types.StopReasonEndTurn))
	assert.Equal(t, engine.StopReasonMaxTokens, convertStopReason(types.StopReasonMaxTokens))
	assert.Equal(t, engine.StopReasonStopSequence, convertStopReason(types.StopReasonStopSequence))
	assert.Equal(t, engine.StopReasonEndTurn, convertStopReason(types.StopReasonGuardrailIntervened))
}
