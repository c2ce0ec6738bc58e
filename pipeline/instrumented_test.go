package pipeline

import (
	"context"
	"errors"
	"testing"

	"platescan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestInstrumentedOrchestratorPassesThrough(t *testing.T) {
	h := &harness{
		classifier: &fakeClassifier{candidates: []platescan.FoodCandidate{{Label: "blob", Confidence: 0.2}}},
		source:     &fakeSource{recipe: appleRecipe},
		db:         per100,
	}
	o := NewInstrumentedOrchestrator(h.orchestrator(),
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"))

	out, err := o.Run(context.Background(), image, 100)
	require.NoError(t, err)
	require.True(t, out.Awaiting())

	res, err := o.Resume(context.Background(), *out.Pending, "apple")
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.Status)
	assert.Equal(t, platescan.FoodSourceUserProvided, res.Food.Source)

	_, err = o.Run(context.Background(), image, -1)
	assert.True(t, errors.Is(err, platescan.ErrInvalidQuantity))
}
