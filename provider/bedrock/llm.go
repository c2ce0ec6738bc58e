package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// Recipes and macro estimates are short; raise it if recipes come back truncated.
	defaultMaxTokens = 1024

	// Low temperature and top_p keep structured JSON output consistent.
	defaultTemperature = 0.2
	defaultTopP        = 0.9

	systemPrompt = "You are a careful culinary and nutrition assistant. Follow the requested output format exactly."
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Client serves both generation and vision classification through the Converse API.
type Client struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

func NewClient(brc bedrockRuntimeClient, opts LLMOptions) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Client{
		brc:  brc,
		opts: opts,
	}
}

// Generate sends a single user turn and returns the model's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Generate invoked", "model", c.opts.ModelID, "prompt_len", len(prompt))

	return c.converse(ctx, []types.ContentBlock{
		&types.ContentBlockMemberText{Value: prompt},
	})
}

func (c *Client) converse(ctx context.Context, content []types.ContentBlock) (string, error) {
	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.opts.ModelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []types.Message{
			{Role: types.ConversationRoleUser, Content: content},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "error", err, "model", c.opts.ModelID)
		return "", err
	}

	var (
		latency      int64
		inputTokens  int32
		outputTokens int32
	)
	if out.Metrics != nil {
		latency = aws.ToInt64(out.Metrics.LatencyMs)
	}
	if out.Usage != nil {
		inputTokens = aws.ToInt32(out.Usage.InputTokens)
		outputTokens = aws.ToInt32(out.Usage.OutputTokens)
	}
	slog.Info("LLM_CLIENT: Bedrock invoke succeeded",
		"stop_reason", out.StopReason,
		"latency_ms", latency,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
	)

	switch out.StopReason {
	case types.StopReasonMaxTokens:
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit")
		return "", fmt.Errorf("model hit MaxTokens limit of %d", c.opts.MaxTokens)

	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return "", fmt.Errorf("model response blocked by Bedrock safety filters")
	}

	text := textFromOutput(out)
	if text == "" {
		return "", fmt.Errorf("model returned no text (stop reason %q)", out.StopReason)
	}
	return text, nil
}

// textFromOutput prefers a block that looks like a single JSON value and otherwise joins all text blocks.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && strings.TrimSpace(t.Value) != "" {
			texts = append(texts, t.Value)
		}
	}

	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(texts[i])
		if json.Valid([]byte(s)) && (strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")) {
			return s
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}
