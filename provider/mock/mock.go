// Package mock provides deterministic offline stand-ins for the classification and generation
// backends. Answers are canned, so they only show how the pipeline handles each phase.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"platescan"
)

var quotedLabel = regexp.MustCompile(`"([^"]+)"`)

// Classifier always answers with the same candidates.
type Classifier struct {
	candidates []platescan.FoodCandidate
}

// NewClassifier returns a classifier that answers with candidates, or a confident "apple" when none are given.
func NewClassifier(candidates ...platescan.FoodCandidate) *Classifier {
	if len(candidates) == 0 {
		candidates = []platescan.FoodCandidate{
			{Label: "apple", Confidence: 0.92},
			{Label: "pear", Confidence: 0.05},
		}
	}
	return &Classifier{candidates: candidates}
}

func (c *Classifier) Classify(ctx context.Context, image []byte) ([]platescan.FoodCandidate, error) {
	slog.Info("MOCK: Classify invoked", "image_bytes", len(image))
	out := make([]platescan.FoodCandidate, len(c.candidates))
	copy(out, c.candidates)
	return out, nil
}

// Generator answers nutrition prompts with a fixed per-100g estimate and anything else with a short recipe.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	label := "dish"
	if m := quotedLabel.FindStringSubmatch(prompt); m != nil {
		label = m[1]
	}

	if strings.Contains(strings.ToLower(prompt), "nutrition") {
		slog.Info("MOCK: Returning nutrition estimate", "label", label)
		b, err := json.Marshal(map[string]float64{
			"calories_kcal": 120,
			"protein_g":     4,
			"carbs_g":       18,
			"fat_g":         3.5,
		})
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	slog.Info("MOCK: Returning recipe", "label", label)
	return fmt.Sprintf(`Title: Simple %s
Ingredients:
- 300 g %s
- 1 tbsp olive oil
- 1 pinch salt
Instructions:
1. Prepare the %s and pat dry.
2. Warm the oil in a pan over medium heat.
3. Cook the %s until done, season with salt and serve.`, label, label, label, label), nil
}
