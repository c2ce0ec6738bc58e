package nutrition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"platescan"
)

const basisGrams = 100.0

// DatabaseLookup reads per-100g values from a nutrition database, trying the label's name variants in order.
type DatabaseLookup struct {
	db platescan.NutritionDatabase
}

func NewDatabaseLookup(db platescan.NutritionDatabase) *DatabaseLookup {
	return &DatabaseLookup{db: db}
}

func (d *DatabaseLookup) Name() string { return "database_lookup" }

func (d *DatabaseLookup) Run(ctx context.Context, label string) (platescan.NutritionFacts, error) {
	for _, key := range Variants(label) {
		facts, err := d.db.Lookup(ctx, key)
		if errors.Is(err, platescan.ErrNotFound) {
			continue
		}
		if err != nil {
			return platescan.NutritionFacts{}, fmt.Errorf("nutrition database failed for %q: %w", key, err)
		}

		if facts.BasisGrams == 0 {
			facts.BasisGrams = basisGrams
		}
		if !facts.IsValid() {
			return platescan.NutritionFacts{}, fmt.Errorf("%w: database entry for %q has negative or non-finite values", platescan.ErrMalformedOutput, key)
		}

		facts.SourceStrategy = platescan.NutritionDatabaseLookup
		slog.Info("NUTRITION: Database hit", "label", label, "key", key)
		return facts, nil
	}

	return platescan.NutritionFacts{}, fmt.Errorf("no database entry for %q: %w", Normalize(label), platescan.ErrNotFound)
}

// Estimation asks a generative text service for per-100g values.
type Estimation struct {
	generator platescan.GenerativeTextService
}

func NewEstimation(generator platescan.GenerativeTextService) *Estimation {
	return &Estimation{generator: generator}
}

func (e *Estimation) Name() string { return "estimation" }

func (e *Estimation) Run(ctx context.Context, label string) (platescan.NutritionFacts, error) {
	prompt, err := NewPrompt(label)
	if err != nil {
		return platescan.NutritionFacts{}, err
	}

	text, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return platescan.NutritionFacts{}, fmt.Errorf("nutrition estimation failed: %w", err)
	}

	facts, err := ParseEstimate(text)
	if err != nil {
		slog.Warn("NUTRITION: Could not parse estimate", "label", label, "text_len", len(text), "error", err)
		return platescan.NutritionFacts{}, err
	}
	if !facts.IsValid() {
		return platescan.NutritionFacts{}, fmt.Errorf("%w: estimate for %q has negative or non-finite values", platescan.ErrMalformedOutput, label)
	}

	facts.SourceStrategy = platescan.NutritionEstimated
	slog.Info("NUTRITION: Estimated", "label", label, "calories_kcal", facts.CaloriesKcal)
	return facts, nil
}
