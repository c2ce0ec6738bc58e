package recipe

import (
	"encoding/json"
	"fmt"
	"strings"

	"platescan"
	"platescan/formatting"
)

type wireRecipe struct {
	Title       string            `json:"title"`
	Ingredients []json.RawMessage `json:"ingredients"`
	Steps       []string          `json:"steps"`
}

type wireIngredient struct {
	Name     string `json:"name"`
	Quantity any    `json:"quantity"`
	Unit     string `json:"unit"`
}

// ParseGenerated extracts a recipe from model output. JSON is preferred; the
// "Ingredients:/Instructions:" plain-text layout is accepted as a fallback.
func ParseGenerated(text, fallbackTitle string) (platescan.Recipe, error) {
	r, err := parseJSONRecipe(text)
	if err != nil || !r.IsValid() {
		r = parseTextRecipe(text)
	}
	if r.Title == "" {
		r.Title = fallbackTitle
	}
	if !r.IsValid() {
		return platescan.Recipe{}, fmt.Errorf("%w: generated text has %d ingredients and %d steps",
			platescan.ErrMalformedOutput, len(r.Ingredients), len(r.Steps))
	}
	return r, nil
}

func parseJSONRecipe(text string) (platescan.Recipe, error) {
	wr, err := formatting.Parse[wireRecipe](text)
	if err != nil {
		return platescan.Recipe{}, err
	}

	r := platescan.Recipe{Title: strings.TrimSpace(wr.Title)}
	for _, raw := range wr.Ingredients {
		if ing, ok := decodeIngredient(raw); ok {
			r.Ingredients = append(r.Ingredients, ing)
		}
	}
	for _, step := range wr.Steps {
		if s := stripListMarker(step); s != "" {
			r.Steps = append(r.Steps, s)
		}
	}
	return r, nil
}

// decodeIngredient accepts either {"name","quantity","unit"} or a plain "2 tbsp olive oil" string.
func decodeIngredient(raw json.RawMessage) (platescan.Ingredient, bool) {
	var line string
	if err := json.Unmarshal(raw, &line); err == nil {
		return ParseIngredient(line)
	}

	var wi wireIngredient
	if err := json.Unmarshal(raw, &wi); err != nil {
		return platescan.Ingredient{}, false
	}
	name := strings.TrimSpace(wi.Name)
	if name == "" {
		return platescan.Ingredient{}, false
	}

	ing := platescan.Ingredient{Name: name, Unit: strings.TrimSpace(wi.Unit)}
	switch q := wi.Quantity.(type) {
	case float64:
		if q > 0 {
			ing.Quantity = q
		}
	case string:
		qty, unit := ParseMeasure(q)
		ing.Quantity = qty
		if ing.Unit == "" {
			ing.Unit = unit
		}
	}
	if u, ok := canonicalUnit(ing.Unit); ok {
		ing.Unit = u
	}
	return ing, true
}

type section int

const (
	sectionNone section = iota
	sectionIngredients
	sectionSteps
)

func parseTextRecipe(text string) platescan.Recipe {
	var (
		r       platescan.Recipe
		current = sectionNone
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		heading, rest := splitHeading(line)
		switch heading {
		case "title", "recipe", "name":
			r.Title = strings.Trim(rest, " *#")
			continue
		case "ingredients":
			current = sectionIngredients
			if rest == "" {
				continue
			}
			line = rest
		case "instructions", "steps", "directions", "method", "preparation":
			current = sectionSteps
			if rest == "" {
				continue
			}
			line = rest
		}

		switch current {
		case sectionNone:
			if r.Title == "" {
				r.Title = strings.Trim(line, " *#")
			}
		case sectionIngredients:
			if ing, ok := ParseIngredient(line); ok {
				r.Ingredients = append(r.Ingredients, ing)
			}
		case sectionSteps:
			if step := stripListMarker(line); len(step) > 3 {
				r.Steps = append(r.Steps, step)
			}
		}
	}

	return r
}

// splitHeading recognises lines such as "Ingredients:", "**Instructions**" or "Title: Apple Crumble".
func splitHeading(line string) (string, string) {
	head, rest, found := strings.Cut(line, ":")
	if !found {
		head, rest = line, ""
	}
	key := strings.ToLower(strings.Trim(head, " *#_"))
	switch key {
	case "title", "recipe", "name", "ingredients", "instructions", "steps", "directions", "method", "preparation":
		return key, strings.TrimSpace(strings.Trim(rest, "*"))
	}
	return "", ""
}
