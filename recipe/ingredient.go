package recipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"platescan"
)

var unitAliases = map[string]string{
	"g": "g", "gram": "g", "grams": "g", "gr": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"mg": "mg",
	"ml": "ml", "millilitre": "ml", "millilitres": "ml", "milliliter": "ml", "milliliters": "ml",
	"l": "l", "litre": "l", "litres": "l", "liter": "l", "liters": "l",
	"tbsp": "tbsp", "tbs": "tbsp", "tbls": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"cup": "cup", "cups": "cup",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"pinch": "pinch", "pinches": "pinch",
	"dash": "dash",
	"clove": "clove", "cloves": "clove",
	"slice": "slice", "slices": "slice",
	"can": "can", "cans": "can",
	"piece": "piece", "pieces": "piece",
	"handful": "handful", "handfuls": "handful",
	"bunch": "bunch",
	"sprig": "sprig", "sprigs": "sprig",
	"stick": "stick", "sticks": "stick",
}

var vulgarFractions = map[rune]float64{
	'½': 0.5, '⅓': 1.0 / 3, '⅔': 2.0 / 3, '¼': 0.25, '¾': 0.75,
	'⅕': 0.2, '⅛': 0.125, '⅜': 0.375, '⅝': 0.625, '⅞': 0.875,
}

var (
	attachedUnitRegex = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)([a-zA-Z]+)\.?$`)
	listMarkerRegex   = regexp.MustCompile(`(?i)^(?:[-*•·]+\s*|\d+[.)]\s+|step\s*\d+[:.)]?\s*)`)
)

// ParseIngredient reads a free-text line like "2 tbsp olive oil" or "200g spaghetti".
// Lines without a leading amount keep quantity 0 and the whole text as the name.
func ParseIngredient(line string) (platescan.Ingredient, bool) {
	line = stripListMarker(line)
	if line == "" {
		return platescan.Ingredient{}, false
	}

	fields := strings.Fields(line)
	qty, unit, n := parseAmount(fields)

	name := strings.Join(fields[n:], " ")
	name = strings.TrimPrefix(name, "of ")
	name = strings.Trim(name, " ,.;:")
	if name == "" {
		return platescan.Ingredient{}, false
	}

	return platescan.Ingredient{Name: name, Quantity: qty, Unit: unit}, true
}

// ParseMeasure splits a measure such as "1 1/2 cups" or "pinch" into a quantity and a unit.
// When no known unit follows the amount, the remaining text is kept as the unit.
func ParseMeasure(measure string) (float64, string) {
	fields := strings.Fields(strings.TrimSpace(measure))
	if len(fields) == 0 {
		return 0, ""
	}

	qty, unit, n := parseAmount(fields)
	if n == 0 {
		return 0, strings.ToLower(strings.Join(fields, " "))
	}
	if unit == "" {
		unit = strings.ToLower(strings.Join(fields[n:], " "))
	}
	return qty, unit
}

// parseAmount consumes a leading quantity and optional unit, returning how many fields were used.
func parseAmount(fields []string) (float64, string, int) {
	if len(fields) == 0 {
		return 0, "", 0
	}

	var (
		qty  float64
		unit string
		n    int
	)

	if m := attachedUnitRegex.FindStringSubmatch(fields[0]); m != nil {
		u, ok := canonicalUnit(m[2])
		if !ok {
			return 0, "", 0
		}
		q, _ := parseNumber(m[1])
		return q, u, 1
	}

	q, ok := parseNumber(fields[0])
	if !ok {
		return 0, "", 0
	}
	qty, n = q, 1

	if n < len(fields) && !strings.ContainsAny(fields[0], "/.½¼¾⅓⅔") {
		if frac, ok := parseNumber(fields[n]); ok && frac < 1 {
			qty += frac
			n++
		}
	}

	if n < len(fields) {
		if u, ok := canonicalUnit(fields[n]); ok {
			unit = u
			n++
		}
	}

	return qty, unit, n
}

func canonicalUnit(s string) (string, bool) {
	u, ok := unitAliases[strings.Trim(strings.ToLower(s), ".,")]
	return u, ok
}

// parseNumber accepts "2", "1.5", "1,5", "1/2", "½" and "1½".
func parseNumber(s string) (float64, bool) {
	s = strings.Trim(s, ",;")
	if s == "" {
		return 0, false
	}

	if last, size := utf8.DecodeLastRuneInString(s); size > 0 {
		if frac, ok := vulgarFractions[last]; ok {
			whole := s[:len(s)-size]
			if whole == "" {
				return frac, true
			}
			w, err := strconv.ParseFloat(whole, 64)
			if err != nil {
				return 0, false
			}
			return w + frac, true
		}
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		a, err1 := strconv.ParseFloat(num, 64)
		b, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || b == 0 {
			return 0, false
		}
		return a / b, true
	}

	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func stripListMarker(line string) string {
	line = strings.TrimSpace(line)
	line = listMarkerRegex.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}
