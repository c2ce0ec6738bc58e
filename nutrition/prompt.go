package nutrition

import (
	"encoding/json"
	"fmt"

	"platescan"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Schema describes the per-100g estimate a generator is asked to return.
func Schema() *jsonschema.Schema {
	zero := 0.0
	number := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{Type: "number", Minimum: &zero, Description: desc}
	}
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"calories_kcal", "protein_g", "carbs_g", "fat_g"},
		Properties: map[string]*jsonschema.Schema{
			"calories_kcal": number("Energy in kcal per 100 g"),
			"protein_g":     number("Protein in grams per 100 g"),
			"carbs_g":       number("Carbohydrates in grams per 100 g"),
			"fat_g":         number("Fat in grams per 100 g"),
		},
	}
}

func NewPrompt(label string) (string, error) {
	schema, err := json.Marshal(Schema())
	if err != nil {
		return "", fmt.Errorf("failed to marshal nutrition schema: %w", err)
	}

	return fmt.Sprintf(`You are a nutritionist. Estimate the nutrition facts of 100 g of %q as typically prepared.

Respond with a single JSON object that matches this JSON schema and nothing else:
%s

If you cannot produce JSON, answer with exactly these four lines:
Calories: <kcal>
Protein: <grams>
Carbs: <grams>
Fat: <grams>`, platescan.HumanizeLabel(label), schema), nil
}
