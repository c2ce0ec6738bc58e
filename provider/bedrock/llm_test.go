package bedrock

import (
	"context"
	"errors"
	"testing"

	"platescan"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBedrockClient implements bedrockRuntimeClient and keeps the last input for inspection.
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = input
	return m.response, m.err
}

func textOutput(stop types.StopReason, texts ...string) *bedrockruntime.ConverseOutput {
	content := make([]types.ContentBlock, 0, len(texts))
	for _, t := range texts {
		content = append(content, &types.ContentBlockMemberText{Value: t})
	}
	return &bedrockruntime.ConverseOutput{
		StopReason: stop,
		Output:     &types.ConverseOutputMemberMessage{Value: types.Message{Role: types.ConversationRoleAssistant, Content: content}},
		Usage:      &types.TokenUsage{InputTokens: aws.Int32(10), OutputTokens: aws.Int32(20)},
		Metrics:    &types.ConverseMetrics{LatencyMs: aws.Int64(100)},
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		input    LLMOptions
		expected LLMOptions
	}{
		{
			name:  "empty options uses defaults",
			input: LLMOptions{},
			expected: LLMOptions{
				ModelID:     defaultModelID,
				MaxTokens:   defaultMaxTokens,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
		{
			name:  "partial options with defaults",
			input: LLMOptions{ModelID: "custom-model", MaxTokens: 2048},
			expected: LLMOptions{
				ModelID:     "custom-model",
				MaxTokens:   2048,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(&mockBedrockClient{}, tt.input)
			assert.Equal(t, tt.expected, client.opts)
		})
	}
}

func TestClientGenerate(t *testing.T) {
	tests := []struct {
		name          string
		response      *bedrockruntime.ConverseOutput
		err           error
		expected      string
		expectedError string
	}{
		{
			name:     "plain text",
			response: textOutput(types.StopReasonEndTurn, "Ingredients:\n- 1 apple"),
			expected: "Ingredients:\n- 1 apple",
		},
		{
			name:     "json block preferred",
			response: textOutput(types.StopReasonEndTurn, "Here you go:", `{"calories_kcal": 52}`),
			expected: `{"calories_kcal": 52}`,
		},
		{
			name:          "max tokens",
			response:      textOutput(types.StopReasonMaxTokens, "Ingredients:"),
			expectedError: "MaxTokens",
		},
		{
			name:          "content filtered",
			response:      textOutput(types.StopReasonContentFiltered),
			expectedError: "safety filters",
		},
		{
			name:          "no text",
			response:      textOutput(types.StopReasonEndTurn),
			expectedError: "no text",
		},
		{
			name:          "api error",
			err:           errors.New("ThrottlingException"),
			expectedError: "ThrottlingException",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(&mockBedrockClient{response: tt.response, err: tt.err}, LLMOptions{})

			got, err := client.Generate(context.Background(), "prompt")
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClientGenerateBuildsSingleTurn(t *testing.T) {
	mock := &mockBedrockClient{response: textOutput(types.StopReasonEndTurn, "ok")}
	_, err := NewClient(mock, LLMOptions{ModelID: "m"}).Generate(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, mock.input.Messages, 1)
	assert.Equal(t, types.ConversationRoleUser, mock.input.Messages[0].Role)
	assert.Equal(t, "m", aws.ToString(mock.input.ModelId))
	assert.Equal(t, &types.ContentBlockMemberText{Value: "hello"}, mock.input.Messages[0].Content[0])
}

func TestClientClassify(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	mock := &mockBedrockClient{response: textOutput(types.StopReasonEndTurn,
		"```json\n{\"candidates\":[{\"label\":\"pad_thai\",\"confidence\":0.7},{\"label\":\"lo_mein\",\"confidence\":0.2}]}\n```")}

	got, err := NewClient(mock, LLMOptions{}).Classify(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, []platescan.FoodCandidate{
		{Label: "pad_thai", Confidence: 0.7},
		{Label: "lo_mein", Confidence: 0.2},
	}, got)

	content := mock.input.Messages[0].Content
	require.Len(t, content, 2)
	img, ok := content[0].(*types.ContentBlockMemberImage)
	require.True(t, ok)
	assert.Equal(t, types.ImageFormatPng, img.Value.Format)
}

func TestClientClassifyRejects(t *testing.T) {
	_, err := NewClient(&mockBedrockClient{}, LLMOptions{}).Classify(context.Background(), []byte("plain text, not an image"))
	assert.ErrorContains(t, err, "unsupported image type")

	mock := &mockBedrockClient{response: textOutput(types.StopReasonEndTurn, "I think it is soup.")}
	_, err = NewClient(mock, LLMOptions{}).Classify(context.Background(), []byte("\x89PNG\r\n\x1a\n"))
	assert.True(t, errors.Is(err, platescan.ErrMalformedOutput))
}
