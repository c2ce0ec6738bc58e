package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"platescan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
	request  *http.Request
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.request = req
	return m.response, m.err
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    ClientOpts
		wantErr bool
	}{
		{
			name: "valid client creation",
			opts: ClientOpts{BaseEndpoint: "http://localhost:11434/", ModelID: "llama3.2", HTTPClient: &mockHTTPClient{}},
		},
		{
			name:    "missing endpoint",
			opts:    ClientOpts{ModelID: "llama3.2"},
			wantErr: true,
		},
		{
			name:    "missing model",
			opts:    ClientOpts{BaseEndpoint: "http://localhost:11434"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClient(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:11434/api/chat", got.endpoint)
			assert.Equal(t, defaultSystemPrompt, got.systemPrompt)
			assert.Equal(t, 0.2, got.options.Temperature)
		})
	}
}

func TestClientGenerate(t *testing.T) {
	tests := []struct {
		name      string
		response  *http.Response
		httpErr   error
		want      string
		wantErr   string
		malformed bool
	}{
		{
			name:     "successful response",
			response: createMockResponse(http.StatusOK, `{"message":{"role":"assistant","content":"Calories: 52\nProtein: 0.3g\nCarbs: 14g\nFat: 0.2g"},"done_reason":"stop"}`),
			want:     "Calories: 52\nProtein: 0.3g\nCarbs: 14g\nFat: 0.2g",
		},
		{
			name:     "server error",
			response: createMockResponse(http.StatusInternalServerError, `model "llama3.2" not found`),
			wantErr:  "not found",
		},
		{
			name:    "transport error",
			httpErr: errors.New("connection refused"),
			wantErr: "connection refused",
		},
		{
			name:      "not json",
			response:  createMockResponse(http.StatusOK, `<html>`),
			malformed: true,
		},
		{
			name:      "empty content",
			response:  createMockResponse(http.StatusOK, `{"message":{"role":"assistant","content":"  "},"done_reason":"length"}`),
			malformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockHTTPClient{response: tt.response, err: tt.httpErr}
			c, err := NewClient(ClientOpts{BaseEndpoint: "http://ollama", ModelID: "llama3.2", HTTPClient: mock})
			require.NoError(t, err)

			got, err := c.Generate(context.Background(), "estimate apple")
			switch {
			case tt.malformed:
				assert.True(t, errors.Is(err, platescan.ErrMalformedOutput))
			case tt.wantErr != "":
				assert.ErrorContains(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)

				var sent wireRequest
				require.NoError(t, json.NewDecoder(mock.request.Body).Decode(&sent))
				assert.Equal(t, "llama3.2", sent.Model)
				require.Len(t, sent.Messages, 2)
				assert.Equal(t, "system", sent.Messages[0].Role)
				assert.Equal(t, message{Role: "user", Content: "estimate apple"}, sent.Messages[1])
				assert.False(t, sent.Stream)
			}
		})
	}
}
