package platescan

import (
	"context"
	"math"
	"net/http"
	"strings"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ImageClassificationService proposes food labels for an image.
type ImageClassificationService interface {
	Classify(ctx context.Context, image []byte) ([]FoodCandidate, error)
}

// RecipeSource looks up a structured recipe by label. Returns ErrNotFound when nothing matches.
type RecipeSource interface {
	Lookup(ctx context.Context, label string) (Recipe, error)
}

// GenerativeTextService turns a prompt into free text.
type GenerativeTextService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NutritionDatabase returns nutrition facts for a food, usually per 100g. Returns ErrNotFound on a miss.
type NutritionDatabase interface {
	Lookup(ctx context.Context, name string) (NutritionFacts, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// FoodCandidate is one classifier-proposed label.
type FoodCandidate struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type FoodSource string

const (
	FoodSourceAuto          FoodSource = "AUTO"
	FoodSourceUserConfirmed FoodSource = "USER_CONFIRMED"
	FoodSourceUserProvided  FoodSource = "USER_PROVIDED"
)

// HumanizeLabel turns a classifier label such as "apple_pie" into the query "apple pie".
func HumanizeLabel(label string) string {
	label = strings.NewReplacer("_", " ", "-", " ").Replace(label)
	return strings.Join(strings.Fields(label), " ")
}

// ResolvedFood is the label every downstream stage works from.
type ResolvedFood struct {
	Label  string     `json:"label"`
	Source FoodSource `json:"source"`
}

type RecipeStrategy string

const (
	RecipeWebLookup   RecipeStrategy = "WEB_LOOKUP"
	RecipeAIGenerated RecipeStrategy = "AI_GENERATED"
)

type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type Recipe struct {
	Title          string         `json:"title"`
	Ingredients    []Ingredient   `json:"ingredients"`
	Steps          []string       `json:"steps"`
	SourceStrategy RecipeStrategy `json:"source_strategy"`
}

// IsValid reports whether the recipe has at least one ingredient and one step.
func (r Recipe) IsValid() bool {
	if len(r.Ingredients) == 0 || len(r.Steps) == 0 {
		return false
	}
	for _, ing := range r.Ingredients {
		if ing.Name == "" {
			return false
		}
	}
	for _, step := range r.Steps {
		if step == "" {
			return false
		}
	}
	return true
}

type NutritionStrategy string

const (
	NutritionDatabaseLookup NutritionStrategy = "DATABASE_LOOKUP"
	NutritionEstimated      NutritionStrategy = "ESTIMATED"
)

// NutritionFacts holds macro values for BasisGrams grams of a food.
type NutritionFacts struct {
	CaloriesKcal   float64           `json:"calories_kcal"`
	ProteinG       float64           `json:"protein_g"`
	CarbsG         float64           `json:"carbs_g"`
	FatG           float64           `json:"fat_g"`
	BasisGrams     float64           `json:"basis_grams"`
	SourceStrategy NutritionStrategy `json:"source_strategy"`
}

// IsValid reports whether all macros are finite and non-negative and the basis is a positive quantity.
func (n NutritionFacts) IsValid() bool {
	for _, v := range []float64{n.CaloriesKcal, n.ProteinG, n.CarbsG, n.FatG} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return ValidGrams(n.BasisGrams)
}

// Scale returns the facts rescaled linearly to grams.
func (n NutritionFacts) Scale(grams float64) NutritionFacts {
	scale := func(v float64) float64 { return v * grams / n.BasisGrams }
	return NutritionFacts{
		CaloriesKcal:   scale(n.CaloriesKcal),
		ProteinG:       scale(n.ProteinG),
		CarbsG:         scale(n.CarbsG),
		FatG:           scale(n.FatG),
		BasisGrams:     grams,
		SourceStrategy: n.SourceStrategy,
	}
}

// ValidGrams reports whether g is a usable quantity: positive and finite.
func ValidGrams(g float64) bool {
	return g > 0 && !math.IsInf(g, 0) && !math.IsNaN(g)
}

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeSkipped Outcome = "SKIPPED"
)

// TraceEntry records one attempted stage of a run.
type TraceEntry struct {
	Stage            string  `json:"stage"`
	Outcome          Outcome `json:"outcome"`
	Detail           string  `json:"detail"`
	TimestampOrdinal int     `json:"timestamp_ordinal"`
}
