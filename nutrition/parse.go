package nutrition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"platescan"
	"platescan/formatting"
)

type wireMacros struct {
	CaloriesKcal *float64 `json:"calories_kcal"`
	ProteinG     *float64 `json:"protein_g"`
	CarbsG       *float64 `json:"carbs_g"`
	FatG         *float64 `json:"fat_g"`
}

var macroLineRegex = regexp.MustCompile(`(?i)^\W*(calories|energy|protein|carbohydrates|carbs|fat|total fat)\W*:?\s*(-?\d+(?:\.\d+)?)`)

// ParseEstimate reads per-100g macros from model output, either as JSON or as
// "Calories: 52 / Protein: 0.3g / Carbs: 14g / Fat: 0.2g" lines. All four values are required.
func ParseEstimate(text string) (platescan.NutritionFacts, error) {
	if wm, err := formatting.Parse[wireMacros](text); err == nil && wm.complete() {
		return platescan.NutritionFacts{
			CaloriesKcal: *wm.CaloriesKcal,
			ProteinG:     *wm.ProteinG,
			CarbsG:       *wm.CarbsG,
			FatG:         *wm.FatG,
			BasisGrams:   basisGrams,
		}, nil
	}

	var wm wireMacros
	for _, line := range strings.Split(text, "\n") {
		m := macroLineRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "calories", "energy":
			wm.CaloriesKcal = &v
		case "protein":
			wm.ProteinG = &v
		case "carbohydrates", "carbs":
			wm.CarbsG = &v
		case "fat", "total fat":
			wm.FatG = &v
		}
	}
	if !wm.complete() {
		return platescan.NutritionFacts{}, fmt.Errorf("%w: estimate is missing one of calories, protein, carbs, fat", platescan.ErrMalformedOutput)
	}

	return platescan.NutritionFacts{
		CaloriesKcal: *wm.CaloriesKcal,
		ProteinG:     *wm.ProteinG,
		CarbsG:       *wm.CarbsG,
		FatG:         *wm.FatG,
		BasisGrams:   basisGrams,
	}, nil
}

func (w wireMacros) complete() bool {
	return w.CaloriesKcal != nil && w.ProteinG != nil && w.CarbsG != nil && w.FatG != nil
}
