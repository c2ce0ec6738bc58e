package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"platescan"
)

const defaultSystemPrompt = "You are a careful culinary and nutrition assistant. Follow the requested output format exactly."

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

// Client generates text with a local Ollama model.
type Client struct {
	endpoint     string
	model        string
	systemPrompt string
	httpClient   platescan.HTTPClient
	options      options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	SystemPrompt string
	HTTPClient   platescan.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.BaseEndpoint) == "" {
		return nil, fmt.Errorf("missing Ollama endpoint")
	}
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, fmt.Errorf("missing Ollama model ID")
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		model:        opts.ModelID,
		systemPrompt: opts.SystemPrompt,
		httpClient:   opts.HTTPClient,
		endpoint:     strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   0.2,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        8192,
		},
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options,omitempty"`
}

type wireResponse struct {
	Message    message `json:"message"`
	DoneReason string  `json:"done_reason"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.model, "prompt_len", len(prompt))

	reqBytes, err := json.Marshal(wireRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:  false,
		Options: c.options,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return "", fmt.Errorf("%w: ollama response: %w", platescan.ErrMalformedOutput, err)
	}

	text := strings.TrimSpace(wr.Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty response (done_reason %q)", platescan.ErrMalformedOutput, wr.DoneReason)
	}

	slog.Info("LLM_CLIENT: Generation succeeded", "text_len", len(text), "done_reason", wr.DoneReason)
	return text, nil
}
