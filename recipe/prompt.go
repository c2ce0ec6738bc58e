package recipe

import (
	"encoding/json"
	"fmt"

	"platescan"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Schema describes the JSON a generator is asked to return.
func Schema() *jsonschema.Schema {
	minQty := 0.0
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"title", "ingredients", "steps"},
		Properties: map[string]*jsonschema.Schema{
			"title": {Type: "string", Description: "Name of the dish"},
			"ingredients": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"name", "quantity", "unit"},
					Properties: map[string]*jsonschema.Schema{
						"name":     {Type: "string"},
						"quantity": {Type: "number", Minimum: &minQty},
						"unit":     {Type: "string", Description: "g, ml, tbsp, tsp, cup, piece, or empty for countable items"},
					},
				},
			},
			"steps": {
				Type:        "array",
				Description: "Ordered preparation steps, one action each",
				Items:       &jsonschema.Schema{Type: "string"},
			},
		},
	}
}

// NewPrompt builds the generation prompt for a food label.
func NewPrompt(label string) (string, error) {
	schema, err := json.Marshal(Schema())
	if err != nil {
		return "", fmt.Errorf("failed to marshal recipe schema: %w", err)
	}

	return fmt.Sprintf(`You are a recipe writer. Write a simple home recipe for %q.

Respond with a single JSON object that matches this JSON schema and nothing else:
%s

If you cannot produce JSON, use this plain-text layout instead:
Title: <dish name>
Ingredients:
- <quantity> <unit> <ingredient>
Instructions:
1. <step>`, platescan.HumanizeLabel(label), schema), nil
}
