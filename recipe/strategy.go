package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"platescan"
)

// WebLookup queries a structured recipe source.
type WebLookup struct {
	source platescan.RecipeSource
}

func NewWebLookup(source platescan.RecipeSource) *WebLookup {
	return &WebLookup{source: source}
}

func (w *WebLookup) Name() string { return "web_lookup" }

func (w *WebLookup) Run(ctx context.Context, label string) (platescan.Recipe, error) {
	query := platescan.HumanizeLabel(label)

	r, err := w.source.Lookup(ctx, query)
	if errors.Is(err, platescan.ErrNotFound) {
		return platescan.Recipe{}, fmt.Errorf("no recipe found for %q: %w", query, err)
	}
	if err != nil {
		return platescan.Recipe{}, fmt.Errorf("recipe source failed for %q: %w", query, err)
	}
	if !r.IsValid() {
		return platescan.Recipe{}, fmt.Errorf("%w: recipe %q for %q is missing ingredients or steps", platescan.ErrMalformedOutput, r.Title, query)
	}

	if r.Title == "" {
		r.Title = query
	}
	r.SourceStrategy = platescan.RecipeWebLookup
	slog.Info("RECIPE: Web lookup succeeded", "label", label, "title", r.Title, "ingredients", len(r.Ingredients))
	return r, nil
}

// Generation asks a generative text service to write a recipe.
type Generation struct {
	generator platescan.GenerativeTextService
}

func NewGeneration(generator platescan.GenerativeTextService) *Generation {
	return &Generation{generator: generator}
}

func (g *Generation) Name() string { return "ai_generation" }

func (g *Generation) Run(ctx context.Context, label string) (platescan.Recipe, error) {
	prompt, err := NewPrompt(label)
	if err != nil {
		return platescan.Recipe{}, err
	}

	text, err := g.generator.Generate(ctx, prompt)
	if err != nil {
		return platescan.Recipe{}, fmt.Errorf("recipe generation failed: %w", err)
	}

	r, err := ParseGenerated(text, platescan.HumanizeLabel(label))
	if err != nil {
		slog.Warn("RECIPE: Could not parse generated recipe", "label", label, "text_len", len(text), "error", err)
		return platescan.Recipe{}, err
	}

	r.SourceStrategy = platescan.RecipeAIGenerated
	slog.Info("RECIPE: Generation succeeded", "label", label, "title", r.Title, "ingredients", len(r.Ingredients), "steps", len(r.Steps))
	return r, nil
}
