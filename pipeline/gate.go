package pipeline

import (
	"fmt"
	"math"
	"strings"

	"platescan"
)

const (
	defaultThreshold = 0.6
	maxChoices       = 3
)

// Gate decides whether the top candidate is good enough to use without asking. It never does I/O.
// A zero Threshold accepts every top candidate. MaxChoices outside 1..3 means 3.
type Gate struct {
	Threshold  float64
	MaxChoices int
}

// DefaultGate asks when the top candidate is below 60% and offers up to three choices.
func DefaultGate() Gate {
	return Gate{Threshold: defaultThreshold, MaxChoices: maxChoices}
}

// NewGate validates threshold against [0,1] and caps choices at three.
func NewGate(threshold float64, choices int) (Gate, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return Gate{}, fmt.Errorf("confidence threshold must be within [0,1], got %v", threshold)
	}
	g := Gate{Threshold: threshold, MaxChoices: choices}
	g.MaxChoices = g.choiceLimit()
	return g, nil
}

func (g Gate) choiceLimit() int {
	if g.MaxChoices <= 0 || g.MaxChoices > maxChoices {
		return maxChoices
	}
	return g.MaxChoices
}

// Decision is either an accepted food or a short list of choices for the caller.
type Decision struct {
	Food    *platescan.ResolvedFood
	Choices []platescan.FoodCandidate
}

func (d Decision) NeedsClarification() bool {
	return d.Food == nil
}

// Decide inspects candidates, which must be sorted by descending confidence and non-empty.
func (g Gate) Decide(candidates []platescan.FoodCandidate) Decision {
	top := candidates[0]
	if top.Confidence >= g.Threshold {
		return Decision{Food: &platescan.ResolvedFood{Label: top.Label, Source: platescan.FoodSourceAuto}}
	}

	n := min(len(candidates), g.choiceLimit())
	choices := make([]platescan.FoodCandidate, n)
	copy(choices, candidates[:n])
	return Decision{Choices: choices}
}

// Confirm turns the caller's answer into a ResolvedFood. An answer matching one of the
// offered choices is a confirmation; anything else is taken as the user's own label.
func (g Gate) Confirm(choices []platescan.FoodCandidate, answer string) (platescan.ResolvedFood, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return platescan.ResolvedFood{}, fmt.Errorf("%w: no food name supplied", platescan.ErrInvalidClarification)
	}

	for _, c := range choices {
		if strings.EqualFold(c.Label, answer) {
			return platescan.ResolvedFood{Label: c.Label, Source: platescan.FoodSourceUserConfirmed}, nil
		}
	}
	return platescan.ResolvedFood{Label: answer, Source: platescan.FoodSourceUserProvided}, nil
}
