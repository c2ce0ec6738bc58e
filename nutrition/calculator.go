package nutrition

import (
	"context"
	"fmt"
	"log/slog"

	"platescan"
	"platescan/fallback"
)

// Calculator produces nutrition facts for a requested quantity: database first, estimate second.
type Calculator struct {
	strategies []fallback.Strategy[string, platescan.NutritionFacts]
}

// NewCalculator wires the strategy chain. Either collaborator may be nil, in which case its strategy is left out.
func NewCalculator(db platescan.NutritionDatabase, generator platescan.GenerativeTextService) *Calculator {
	c := &Calculator{}
	if db != nil {
		c.strategies = append(c.strategies, NewDatabaseLookup(db))
	}
	if generator != nil {
		c.strategies = append(c.strategies, NewEstimation(generator))
	}
	return c
}

// Compute returns facts scaled to grams. It refuses a non-positive or non-finite quantity before doing any lookup,
// and a quantity so large that the scaled values overflow.
func (c *Calculator) Compute(ctx context.Context, label string, grams float64, policy fallback.Policy) (platescan.NutritionFacts, []fallback.Attempt, error) {
	if !platescan.ValidGrams(grams) {
		return platescan.NutritionFacts{}, nil, fmt.Errorf("%w: %v grams", platescan.ErrInvalidQuantity, grams)
	}

	slog.Info("NUTRITION: Computing", "label", label, "grams", grams, "strategies", len(c.strategies))

	per, attempts, err := fallback.Run(ctx, policy, label, c.strategies...)
	if err != nil {
		return platescan.NutritionFacts{}, attempts, fmt.Errorf("%w: %w", platescan.ErrNutritionUnavailable, err)
	}

	scaled := per.Scale(grams)
	if !scaled.IsValid() {
		return platescan.NutritionFacts{}, attempts, fmt.Errorf("%w: %v grams of %q is out of range for the per-%g g values",
			platescan.ErrNutritionUnavailable, grams, label, per.BasisGrams)
	}
	return scaled, attempts, nil
}
