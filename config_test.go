package platescan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 0.6, cfg.Pipeline.ConfidenceThreshold)
		assert.Equal(t, 5, cfg.Pipeline.MaxCandidates)
		assert.Equal(t, 3, cfg.Pipeline.MaxClarificationChoices)
		assert.Equal(t, 15*time.Second, cfg.Pipeline.StrategyTimeout)
		assert.Equal(t, 1, cfg.Pipeline.StrategyAttempts)
		assert.Equal(t, int32(1024), cfg.Model.MaxTokens)
		assert.Equal(t, "memory", cfg.Provider.NutritionStore)
		assert.Equal(t, "http://localhost:11434", cfg.Provider.BaseOllamaEndpoint)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("CONFIDENCE_THRESHOLD", "0.75")
		t.Setenv("STRATEGY_TIMEOUT", "3s")
		t.Setenv("STRATEGY_ATTEMPTS", "2")
		t.Setenv("GENERATOR_PROVIDER", "ollama")
		t.Setenv("MODEL_ID", "llama3.2")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 0.75, cfg.Pipeline.ConfidenceThreshold)
		assert.Equal(t, 3*time.Second, cfg.Pipeline.StrategyTimeout)
		assert.Equal(t, 2, cfg.Pipeline.StrategyAttempts)
		assert.Equal(t, "ollama", cfg.Provider.Generator)
		assert.Equal(t, "llama3.2", cfg.Model.ModelID)
	})

	t.Run("malformed values", func(t *testing.T) {
		for name, value := range map[string]string{
			"MAX_CANDIDATES":       "many",
			"CONFIDENCE_THRESHOLD": "high",
			"STRATEGY_TIMEOUT":     "soon",
			"MAX_TOKENS":           "lots",
		} {
			t.Run(name, func(t *testing.T) {
				t.Setenv(name, value)

				_, err := LoadConfig()
				assert.ErrorContains(t, err, "failed to decode")
			})
		}
	})
}
