package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platescan"
	"platescan/pipeline"
)

func TestAsk(t *testing.T) {
	pending := &pipeline.Pending{
		Threshold: 0.6,
		Choices: []platescan.FoodCandidate{
			{Label: "apple_pie", Confidence: 0.41},
			{Label: "tarte_tatin", Confidence: 0.33},
		},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"1\n", "apple_pie"},
		{"2\n", "tarte_tatin"},
		{"3\n", "3"},
		{"  banana bread \n", "banana bread"},
		{"apple_pie", "apple_pie"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ask(strings.NewReader(tt.input), pending)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAskEmptyInput(t *testing.T) {
	_, err := ask(strings.NewReader(""), &pipeline.Pending{})
	assert.Error(t, err)
}
