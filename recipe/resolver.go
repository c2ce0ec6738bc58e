package recipe

import (
	"context"
	"fmt"
	"log/slog"

	"platescan"
	"platescan/fallback"
)

// Resolver turns a food label into a recipe: web lookup first, generation second.
type Resolver struct {
	strategies []fallback.Strategy[string, platescan.Recipe]
}

// NewResolver wires the strategy chain. Either collaborator may be nil, in which case its strategy is left out.
func NewResolver(source platescan.RecipeSource, generator platescan.GenerativeTextService) *Resolver {
	r := &Resolver{}
	if source != nil {
		r.strategies = append(r.strategies, NewWebLookup(source))
	}
	if generator != nil {
		r.strategies = append(r.strategies, NewGeneration(generator))
	}
	return r
}

// Resolve runs the chain under the caller's policy and returns every attempt made.
func (r *Resolver) Resolve(ctx context.Context, label string, policy fallback.Policy) (platescan.Recipe, []fallback.Attempt, error) {
	slog.Info("RECIPE: Resolving", "label", label, "strategies", len(r.strategies))

	recipe, attempts, err := fallback.Run(ctx, policy, label, r.strategies...)
	if err != nil {
		return platescan.Recipe{}, attempts, fmt.Errorf("%w: %w", platescan.ErrRecipeUnresolved, err)
	}
	return recipe, attempts, nil
}
