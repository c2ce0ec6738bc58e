package slack_test

import (
	"context"
	"errors"
	"testing"

	"platescan"
	"platescan/pipeline"
	"platescan/slack"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type recordingClient struct {
	channel, message string
	err              error
}

func (r *recordingClient) PostMessage(ctx context.Context, channel, message string) error {
	r.channel, r.message = channel, message
	return r.err
}

var trace = []platescan.TraceEntry{
	{Stage: "quantity", Outcome: platescan.OutcomeSuccess, Detail: "150 g requested", TimestampOrdinal: 1},
	{Stage: "classify", Outcome: platescan.OutcomeSuccess, Detail: "1 candidate(s)", TimestampOrdinal: 2},
}

func TestFormatOutcome(t *testing.T) {
	tests := []struct {
		name     string
		out      pipeline.Outcome
		err      error
		contains []string
	}{
		{
			name: "done",
			out: pipeline.Outcome{Status: pipeline.StateDone, Result: &pipeline.Result{
				RunID:     "r1",
				Food:      platescan.ResolvedFood{Label: "apple_pie", Source: platescan.FoodSourceAuto},
				Recipe:    &platescan.Recipe{Title: "Apple Pie", Ingredients: make([]platescan.Ingredient, 6), Steps: make([]string, 4), SourceStrategy: platescan.RecipeWebLookup},
				Nutrition: &platescan.NutritionFacts{CaloriesKcal: 142.5, BasisGrams: 150, SourceStrategy: platescan.NutritionDatabaseLookup},
				Trace:     trace,
				Status:    pipeline.StateDone,
			}},
			contains: []string{":white_check_mark: *apple pie*", "Apple Pie, 6 ingredients, 4 steps (WEB_LOOKUP)", "for 150 g: 142.5 kcal", "[2] classify SUCCESS: 1 candidate(s)"},
		},
		{
			name: "partial",
			out: pipeline.Outcome{Status: pipeline.StatePartialFailure, Result: &pipeline.Result{
				RunID:  "r2",
				Food:   platescan.ResolvedFood{Label: "apple"},
				Recipe: &platescan.Recipe{Title: "Baked Apples"},
				Status: pipeline.StatePartialFailure,
			}},
			contains: []string{":warning:", "*Nutrition*: unavailable"},
		},
		{
			name: "pending",
			out: pipeline.Outcome{Status: pipeline.StateAwaitingClarification, Pending: &pipeline.Pending{
				RunID: "r3", RequestedGrams: 80,
				Choices: []platescan.FoodCandidate{{Label: "fried_rice", Confidence: 0.41}},
				Trace:   trace,
			}},
			contains: []string{"needs clarification", "• fried rice (41%)"},
		},
		{
			name:     "fatal",
			err:      &pipeline.RunError{RunID: "r4", Kind: platescan.ErrInvalidQuantity, Message: "invalid quantity: -1 grams", Trace: trace[:1]},
			contains: []string{":x: *Run r4 failed*: invalid quantity: -1 grams", "[1] quantity SUCCESS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := slack.FormatOutcome(tt.out, tt.err)
			for _, want := range tt.contains {
				should.Contains(t, msg, want)
			}
		})
	}
}

func TestNotifyOutcome(t *testing.T) {
	client := &recordingClient{}
	n := slack.NewNotifier(client, "#food")

	err := n.NotifyOutcome(context.Background(), pipeline.Outcome{}, errors.New("boom"))
	must.NoError(t, err)
	should.Equal(t, "#food", client.channel)
	should.Contains(t, client.message, "boom")

	client.err = errors.New("webhook down")
	should.Error(t, n.NotifyOutcome(context.Background(), pipeline.Outcome{}, errors.New("boom")))
}
