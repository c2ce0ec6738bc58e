package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"

	"platescan"
	"platescan/bootstrap"
	"platescan/pipeline"
	"platescan/storage"
)

// Params carries either a new image (inline or in S3) or a pending clarification plus its answer.
type Params struct {
	ImageBase64 string            `json:"image_base64,omitempty"`
	S3Bucket    string            `json:"s3_bucket,omitempty"`
	S3Key       string            `json:"s3_key,omitempty"`
	Grams       float64           `json:"grams"`
	Pending     *pipeline.Pending `json:"pending,omitempty"`
	Choice      string            `json:"choice,omitempty"`
}

type Results struct {
	Output pipeline.Outcome       `json:"output"`
	Error  string                 `json:"error,omitempty"`
	Trace  []platescan.TraceEntry `json:"trace,omitempty"`
}

type runner interface {
	Run(ctx context.Context, image []byte, grams float64) (pipeline.Outcome, error)
	Resume(ctx context.Context, p pipeline.Pending, answer string) (*pipeline.Result, error)
}

type handler struct {
	pipeline runner
	objects  func(ctx context.Context, bucket, key string) (storage.Object, error)
}

func main() {
	ctx := context.Background()

	cfg, err := platescan.LoadConfig()
	if err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	app, err := bootstrap.Build(ctx, cfg, platescan.NewStdoutRunLogger())
	if err != nil {
		log.Fatalf("SETUP: Failed to build pipeline: %s", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := platescan.InitOtel(ctx)
	if err != nil {
		log.Fatalf("SETUP: Failed to initialize OpenTelemetry: %s", err)
	}

	h := &handler{
		pipeline: pipeline.NewInstrumentedOrchestrator(
			app.Orchestrator,
			tracerProvider.Tracer(platescan.TracerNameLambda),
			meterProvider.Meter(platescan.TracerNameLambda),
		),
		objects: func(ctx context.Context, bucket, key string) (storage.Object, error) {
			client, err := app.S3(ctx)
			if err != nil {
				return nil, err
			}
			return storage.NewS3Object(client, bucket, key), nil
		},
	}

	lambda.StartWithOptions(h.handle, lambda.WithEnableSIGTERM(func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
		if err := app.Close(); err != nil {
			slog.Error("SETUP: Failed to close resources", "error", err)
		}
	}))
}

func (h *handler) handle(ctx context.Context, params Params) (Results, error) {
	if params.Pending != nil {
		result, err := h.pipeline.Resume(ctx, *params.Pending, params.Choice)
		if err != nil {
			return failed(err)
		}
		return Results{Output: pipeline.Outcome{Status: result.Status, Result: result}}, nil
	}

	image, err := h.image(ctx, params)
	if err != nil {
		slog.Error("SETUP: Failed to load image", "error", err)
		return Results{}, err
	}

	out, err := h.pipeline.Run(ctx, image, params.Grams)
	if err != nil {
		return failed(err)
	}
	slog.Info("RESULT: Run finished", "status", out.Status)
	return Results{Output: out}, nil
}

func (h *handler) image(ctx context.Context, params Params) ([]byte, error) {
	switch {
	case params.ImageBase64 != "":
		image, err := base64.StdEncoding.DecodeString(params.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid image_base64: %w", err)
		}
		return image, nil
	case params.S3Bucket != "" && params.S3Key != "":
		obj, err := h.objects(ctx, params.S3Bucket, params.S3Key)
		if err != nil {
			return nil, err
		}
		return obj.Load(ctx)
	default:
		return nil, errors.New("one of image_base64 or s3_bucket/s3_key must be set")
	}
}

// failed reports pipeline errors in the result so the caller still gets the trace; the invocation itself succeeds.
func failed(err error) (Results, error) {
	slog.Error("RESULT: Error handling request", "error", err)

	var runErr *pipeline.RunError
	if !errors.As(err, &runErr) {
		return Results{}, err
	}
	return Results{
		Output: pipeline.Outcome{Status: pipeline.StateFailed},
		Error:  runErr.Message,
		Trace:  runErr.Trace,
	}, nil
}
