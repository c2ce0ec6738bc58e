package mock

import (
	"context"
	"testing"

	"platescan"
	"platescan/nutrition"
	"platescan/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierDefaults(t *testing.T) {
	got, err := NewClassifier().Classify(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "apple", got[0].Label)

	custom := []platescan.FoodCandidate{{Label: "blob", Confidence: 0.3}}
	c := NewClassifier(custom...)
	got, err = c.Classify(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, custom, got)

	got[0].Label = "changed"
	again, _ := c.Classify(context.Background(), nil)
	assert.Equal(t, "blob", again[0].Label)
}

func TestGeneratorOutputParses(t *testing.T) {
	g := NewGenerator()

	recipePrompt, err := recipe.NewPrompt("pad_thai")
	require.NoError(t, err)
	text, err := g.Generate(context.Background(), recipePrompt)
	require.NoError(t, err)

	r, err := recipe.ParseGenerated(text, "pad thai")
	require.NoError(t, err)
	assert.Equal(t, "Simple pad thai", r.Title)
	assert.Len(t, r.Ingredients, 3)
	assert.Len(t, r.Steps, 3)

	nutritionPrompt, err := nutrition.NewPrompt("pad_thai")
	require.NoError(t, err)
	text, err = g.Generate(context.Background(), nutritionPrompt)
	require.NoError(t, err)

	facts, err := nutrition.ParseEstimate(text)
	require.NoError(t, err)
	assert.Equal(t, 120.0, facts.CaloriesKcal)
}
