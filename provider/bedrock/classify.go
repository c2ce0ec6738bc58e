package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"platescan"
	"platescan/formatting"
)

var imageFormats = map[string]types.ImageFormat{
	"image/jpeg": types.ImageFormatJpeg,
	"image/png":  types.ImageFormatPng,
	"image/gif":  types.ImageFormatGif,
	"image/webp": types.ImageFormatWebp,
}

type wireClassification struct {
	Candidates []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"candidates"`
}

func classificationSchema() *jsonschema.Schema {
	zero, one := 0.0, 1.0
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"candidates"},
		Properties: map[string]*jsonschema.Schema{
			"candidates": {
				Type:        "array",
				Description: "Most likely dishes first",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"label", "confidence"},
					Properties: map[string]*jsonschema.Schema{
						"label":      {Type: "string", Description: "Short lowercase dish name using underscores, e.g. apple_pie"},
						"confidence": {Type: "number", Minimum: &zero, Maximum: &one},
					},
				},
			},
		},
	}
}

func classificationPrompt() (string, error) {
	schema, err := json.Marshal(classificationSchema())
	if err != nil {
		return "", fmt.Errorf("failed to marshal classification schema: %w", err)
	}
	return fmt.Sprintf(`Identify the food or dish in this photo. List up to five candidates with your confidence in each.

Respond with a single JSON object that matches this JSON schema and nothing else:
%s`, schema), nil
}

// Classify asks a vision-capable model to name the dish in the image.
func (c *Client) Classify(ctx context.Context, image []byte) ([]platescan.FoodCandidate, error) {
	mime := http.DetectContentType(image)
	format, ok := imageFormats[mime]
	if !ok {
		return nil, fmt.Errorf("unsupported image type %q", mime)
	}

	prompt, err := classificationPrompt()
	if err != nil {
		return nil, err
	}

	slog.Info("LLM_CLIENT: Classify invoked", "model", c.opts.ModelID, "image_bytes", len(image), "format", format)

	text, err := c.converse(ctx, []types.ContentBlock{
		&types.ContentBlockMemberImage{Value: types.ImageBlock{
			Format: format,
			Source: &types.ImageSourceMemberBytes{Value: image},
		}},
		&types.ContentBlockMemberText{Value: prompt},
	})
	if err != nil {
		return nil, err
	}

	wc, err := formatting.Parse[wireClassification](text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", platescan.ErrMalformedOutput, err)
	}

	out := make([]platescan.FoodCandidate, 0, len(wc.Candidates))
	for _, cand := range wc.Candidates {
		out = append(out, platescan.FoodCandidate{Label: cand.Label, Confidence: cand.Confidence})
	}
	return out, nil
}
