package nutrition

import (
	"strings"

	"platescan"
)

// Normalize lowercases a food name and flattens separators: "Apple_Pie " becomes "apple pie".
func Normalize(name string) string {
	return strings.ToLower(platescan.HumanizeLabel(name))
}

// Variants lists the keys tried against a nutrition database, most specific first:
// the label as given, its normalised form, then a singular form.
func Variants(label string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	add(strings.TrimSpace(label))
	n := Normalize(label)
	add(n)
	add(singular(n))
	return out
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 4:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "oes"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "ss"), strings.HasSuffix(s, "us"):
		return s
	case strings.HasSuffix(s, "s") && len(s) > 3:
		return s[:len(s)-1]
	}
	return s
}
