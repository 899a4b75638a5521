// Package bedrock implements the engine on the Bedrock Converse streaming
// API.
package bedrock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentwire/agentwire/pkg/config"
	"github.com/agentwire/agentwire/pkg/engine"
)

// Client implements engine.Engine on the Bedrock ConverseStream API.
type Client struct {
	model         config.Model
	bedrockClient *bedrockruntime.Client
}

// bearerTokenTransport adds an Authorization header with a bearer token to
// requests.
type bearerTokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}

// NewClient creates a Bedrock engine client from the model configuration.
func NewClient(ctx context.Context, model config.Model) (*Client, error) {
	if model.ID == "" {
		return nil, errors.New("model id is required")
	}

	awsCfg, err := buildAWSConfig(ctx, model)
	if err != nil {
		slog.Error("Failed to build AWS config", "error", err)
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	var clientOpts []func(*bedrockruntime.Options)

	// Bedrock API keys are not recognized by the default credential chain;
	// when AWS_BEARER_TOKEN_BEDROCK is set the token replaces SigV4 signing.
	// See: https://docs.aws.amazon.com/bedrock/latest/userguide/api-keys-use.html
	if bearerToken := os.Getenv("AWS_BEARER_TOKEN_BEDROCK"); bearerToken != "" {
		slog.Debug("Bedrock using bearer token authentication")
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.Credentials = aws.AnonymousCredentials{}
			o.HTTPClient = &http.Client{
				Transport: &bearerTokenTransport{
					token: bearerToken,
					base:  http.DefaultTransport,
				},
			}
		})
	}

	bedrockClient := bedrockruntime.NewFromConfig(awsCfg, clientOpts...)

	slog.Debug("Bedrock client created", "model", model.ID, "region", awsCfg.Region)

	return &Client{
		model:         model,
		bedrockClient: bedrockClient,
	}, nil
}

// buildAWSConfig creates the AWS config using the default credential chain.
func buildAWSConfig(ctx context.Context, model config.Model) (aws.Config, error) {
	region := model.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// Stream starts a Converse stream for the given conversation.
func (c *Client) Stream(ctx context.Context, messages []engine.Message, tools []engine.Tool) (engine.EventStream, error) {
	slog.Debug("Creating Bedrock converse stream",
		"model", c.model.ID,
		"message_count", len(messages),
		"tool_count", len(tools))

	if len(messages) == 0 {
		return nil, errors.New("at least one message is required")
	}

	input := c.buildConverseStreamInput(messages, tools)

	output, err := c.bedrockClient.ConverseStream(ctx, input)
	if err != nil {
		slog.Error("Bedrock ConverseStream failed", "error", err)
		return nil, fmt.Errorf("bedrock converse stream failed: %w", err)
	}

	return newStreamAdapter(output.GetStream()), nil
}

func (c *Client) buildConverseStreamInput(messages []engine.Message, tools []engine.Tool) *bedrockruntime.ConverseStreamInput {
	input := &bedrockruntime.ConverseStreamInput{
		ModelId: aws.String(c.model.ID),
	}

	input.Messages, input.System = convertMessages(messages)
	input.InferenceConfig = c.buildInferenceConfig()

	if len(tools) > 0 {
		input.ToolConfig = convertToolConfig(tools)
	}

	return input
}

func (c *Client) buildInferenceConfig() *types.InferenceConfiguration {
	cfg := &types.InferenceConfiguration{
		Temperature: aws.Float32(float32(c.model.Temperature)),
	}
	if c.model.MaxTokens > 0 {
		cfg.MaxTokens = aws.Int32(int32(c.model.MaxTokens))
	}
	return cfg
}
