// Package anthropic implements the engine on the Anthropic Messages
// streaming API.
package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/agentwire/agentwire/pkg/config"
	"github.com/agentwire/agentwire/pkg/engine"
)

// Client implements engine.Engine on the Anthropic Messages API.
type Client struct {
	model  config.Model
	client anthropic.Client
}

// NewClient creates an Anthropic engine client from the model configuration.
// ANTHROPIC_API_KEY must be set.
func NewClient(model config.Model) (*Client, error) {
	if model.ID == "" {
		return nil, errors.New("model id is required")
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	slog.Debug("Anthropic client created", "model", model.ID)

	return &Client{
		model:  model,
		client: client,
	}, nil
}

// Stream starts a Messages stream for the given conversation.
func (c *Client) Stream(ctx context.Context, messages []engine.Message, tools []engine.Tool) (engine.EventStream, error) {
	slog.Debug("Creating Anthropic message stream",
		"model", c.model.ID,
		"message_count", len(messages),
		"tool_count", len(tools))

	if len(messages) == 0 {
		return nil, errors.New("at least one message is required")
	}

	converted := convertMessages(messages)
	if len(converted) == 0 {
		return nil, errors.New("no messages to send after conversion")
	}

	allTools, err := convertTools(tools)
	if err != nil {
		slog.Error("Failed to convert tools for Anthropic request", "error", err)
		return nil, err
	}

	maxTokens := int64(c.model.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model.ID),
		MaxTokens:   maxTokens,
		Temperature: param.NewOpt(c.model.Temperature),
		System:      extractSystemBlocks(messages),
		Messages:    converted,
		Tools:       allTools,
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	return newStreamAdapter(stream), nil
}
