// Package huggingface talks to the Hugging Face inference router: image classification
// for food photos and the OpenAI-compatible chat completions endpoint for text.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"platescan"
)

const (
	defaultClassifierURL = "https://router.huggingface.co/hf-inference/models/nateraw/food"
	defaultChatURL       = "https://router.huggingface.co/v1/chat/completions"
	defaultChatModel     = "meta-llama/Llama-3.1-8B-Instruct"

	defaultMaxTokens   = 1024
	defaultTemperature = 0.2
	defaultTopP        = 0.9

	maxErrorBody = 512
)

type ClassifierOpts struct {
	URL        string
	Token      string
	HTTPClient platescan.HTTPClient
}

// Classifier posts raw image bytes to a hosted image-classification model.
type Classifier struct {
	url        string
	token      string
	httpClient platescan.HTTPClient
}

func NewClassifier(opts ClassifierOpts) *Classifier {
	if opts.URL == "" {
		opts.URL = defaultClassifierURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Classifier{url: opts.URL, token: opts.Token, httpClient: opts.HTTPClient}
}

type wireLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify returns the model's labels in the order the model ranked them.
func (c *Classifier) Classify(ctx context.Context, image []byte) ([]platescan.FoodCandidate, error) {
	slog.Info("HF_CLIENT: Classifying image", "url", c.url, "image_bytes", len(image))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", http.DetectContentType(image))
	c.authorize(req)

	body, err := do(c.httpClient, req)
	if err != nil {
		return nil, err
	}

	var labels []wireLabel
	if err := json.Unmarshal(body, &labels); err != nil {
		return nil, fmt.Errorf("%w: classifier response: %s", platescan.ErrMalformedOutput, truncate(body))
	}

	out := make([]platescan.FoodCandidate, 0, len(labels))
	for _, l := range labels {
		out = append(out, platescan.FoodCandidate{Label: l.Label, Confidence: l.Score})
	}

	slog.Info("HF_CLIENT: Classification succeeded", "labels", len(out))
	return out, nil
}

func (c *Classifier) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

type ChatOpts struct {
	URL         string
	Token       string
	Model       string
	MaxTokens   int32
	Temperature float32
	TopP        float32
	HTTPClient  platescan.HTTPClient
}

// ChatClient generates text through an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	opts ChatOpts
}

func NewChatClient(opts ChatOpts) *ChatClient {
	if opts.URL == "" {
		opts.URL = defaultChatURL
	}
	if opts.Model == "" {
		opts.Model = defaultChatModel
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &ChatClient{opts: opts}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int32         `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("HF_CLIENT: Generating", "model", c.opts.Model, "prompt_len", len(prompt))

	payload, err := json.Marshal(chatRequest{
		Model:       c.opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	body, err := do(c.opts.HTTPClient, req)
	if err != nil {
		return "", err
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("%w: chat response: %s", platescan.ErrMalformedOutput, truncate(body))
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("%w: chat response has no choices", platescan.ErrMalformedOutput)
	}

	text := strings.TrimSpace(cr.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion (finish_reason %q)", platescan.ErrMalformedOutput, cr.Choices[0].FinishReason)
	}

	slog.Info("HF_CLIENT: Generation succeeded", "text_len", len(text), "finish_reason", cr.Choices[0].FinishReason)
	return text, nil
}

func do(client platescan.HTTPClient, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HF_CLIENT: %s: %s", resp.Status, truncate(body))
	}
	return body, nil
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= maxErrorBody {
		return s
	}
	n := maxErrorBody
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
