package recipe

import (
	"strings"
	"unicode"
)

// SplitSteps breaks free-form instructions into steps. Each non-empty line is a step once list
// markers and "STEP n" headings are removed; a single paragraph is split into sentences.
func SplitSteps(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var steps []string
	for _, line := range strings.Split(text, "\n") {
		s := stripListMarker(line)
		if s == "" || isNumber(s) {
			continue
		}
		steps = append(steps, s)
	}

	if len(steps) == 1 {
		return sentences(steps[0])
	}
	return steps
}

func sentences(paragraph string) []string {
	var out []string
	for _, part := range strings.SplitAfter(paragraph, ". ") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isNumber(s string) bool {
	for _, r := range strings.TrimRight(s, ".)") {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
