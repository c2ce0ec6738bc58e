package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"platescan"
)

const defaultMaxCandidates = 5

// Client sits in front of an image classification backend and guarantees a clean, ranked candidate list.
type Client struct {
	service       platescan.ImageClassificationService
	maxCandidates int
}

type Options struct {
	// MaxCandidates caps the result length (K). Zero means the default of 5.
	MaxCandidates int
}

func New(service platescan.ImageClassificationService, opts Options) *Client {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = defaultMaxCandidates
	}
	return &Client{service: service, maxCandidates: opts.MaxCandidates}
}

// Classify returns between 1 and K candidates sorted by descending confidence.
// Equal confidences keep the backend's ranking order. It never retries.
func (c *Client) Classify(ctx context.Context, image []byte) ([]platescan.FoodCandidate, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", platescan.ErrClassificationUnavailable)
	}

	raw, err := c.service.Classify(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", platescan.ErrClassificationUnavailable, err)
	}

	candidates := make([]platescan.FoodCandidate, 0, len(raw))
	for _, fc := range raw {
		label := strings.TrimSpace(fc.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: %w: candidate with empty label", platescan.ErrClassificationUnavailable, platescan.ErrMalformedOutput)
		}
		if math.IsNaN(fc.Confidence) || fc.Confidence < 0 || fc.Confidence > 1 {
			return nil, fmt.Errorf("%w: %w: confidence %v for %q outside [0,1]", platescan.ErrClassificationUnavailable, platescan.ErrMalformedOutput, fc.Confidence, label)
		}
		candidates = append(candidates, platescan.FoodCandidate{Label: label, Confidence: fc.Confidence})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", platescan.ErrClassificationUnavailable)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > c.maxCandidates {
		candidates = candidates[:c.maxCandidates]
	}

	slog.Info("CLASSIFIER: Classified image",
		"candidates", len(candidates),
		"top_label", candidates[0].Label,
		"top_confidence", candidates[0].Confidence)

	return candidates, nil
}
