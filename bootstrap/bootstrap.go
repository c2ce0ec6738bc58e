// Package bootstrap turns configuration into a wired Orchestrator. Every entry point shares it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"platescan"
	"platescan/classifier"
	"platescan/fallback"
	"platescan/nutrition"
	"platescan/nutrition/db"
	"platescan/pipeline"
	"platescan/provider/bedrock"
	"platescan/provider/huggingface"
	"platescan/provider/mock"
	"platescan/provider/ollama"
	"platescan/recipe"
	"platescan/storage"
	"platescan/themealdb"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderBedrock     = "bedrock"
	ProviderOllama      = "ollama"
	ProviderMock        = "mock"
	ProviderNone        = "none"

	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreS3       = "s3"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// App holds the wired pipeline and whatever must be released on shutdown.
type App struct {
	Orchestrator *pipeline.Orchestrator
	Config       platescan.Config

	aws     *aws.Config
	closers []func() error
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires providers, stores and the orchestrator from cfg.
func Build(ctx context.Context, cfg platescan.Config, logger platescan.RunLogger) (*App, error) {
	app := &App{Config: cfg}

	gate, err := pipeline.NewGate(cfg.Pipeline.ConfidenceThreshold, cfg.Pipeline.MaxClarificationChoices)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Pipeline.StrategyTimeout + 5*time.Second}

	service, err := app.classificationService(ctx, httpClient)
	if err != nil {
		return nil, err
	}

	generator, err := app.generator(ctx, httpClient)
	if err != nil {
		return nil, err
	}

	var source platescan.RecipeSource
	if !strings.EqualFold(cfg.Provider.MealDBBaseURL, ProviderNone) {
		source = themealdb.NewClient(themealdb.Opts{BaseURL: cfg.Provider.MealDBBaseURL, HTTPClient: httpClient})
	}

	store, err := app.nutritionDatabase(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Orchestrator = pipeline.New(
		classifier.New(service, classifier.Options{MaxCandidates: cfg.Pipeline.MaxCandidates}),
		recipe.NewResolver(source, generator),
		nutrition.NewCalculator(store, generator),
		pipeline.Options{
			Gate:   gate,
			Policy: fallback.Policy{Attempts: cfg.Pipeline.StrategyAttempts, Timeout: cfg.Pipeline.StrategyTimeout},
			Logger: logger,
		},
	)

	slog.Info("SETUP: Pipeline ready",
		"classifier", cfg.Provider.Classifier,
		"generator", cfg.Provider.Generator,
		"nutrition_store", cfg.Provider.NutritionStore,
		"recipe_source", source != nil)
	return app, nil
}

// AWS loads the default AWS configuration once.
func (a *App) AWS(ctx context.Context) (aws.Config, error) {
	if a.aws != nil {
		return *a.aws, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(5))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	a.aws = &cfg
	return cfg, nil
}

func (a *App) S3(ctx context.Context) (*s3.Client, error) {
	cfg, err := a.AWS(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

func (a *App) bedrockClient(ctx context.Context) (*bedrock.Client, error) {
	cfg, err := a.AWS(ctx)
	if err != nil {
		return nil, err
	}
	m := a.Config.Model
	return bedrock.NewClient(bedrockruntime.NewFromConfig(cfg), bedrock.LLMOptions{
		ModelID:     m.ModelID,
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
		TopP:        m.TopP,
	}), nil
}

func (a *App) classificationService(ctx context.Context, httpClient platescan.HTTPClient) (platescan.ImageClassificationService, error) {
	p := a.Config.Provider
	switch strings.ToLower(p.Classifier) {
	case ProviderHuggingFace:
		return huggingface.NewClassifier(huggingface.ClassifierOpts{URL: p.HFClassifierURL, Token: p.HFToken, HTTPClient: httpClient}), nil
	case ProviderBedrock:
		return a.bedrockClient(ctx)
	case ProviderMock:
		return mock.NewClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", p.Classifier)
	}
}

// generator returns nil for "none", which leaves generation and estimation out of the chains.
func (a *App) generator(ctx context.Context, httpClient platescan.HTTPClient) (platescan.GenerativeTextService, error) {
	p, m := a.Config.Provider, a.Config.Model
	switch strings.ToLower(p.Generator) {
	case ProviderHuggingFace:
		return huggingface.NewChatClient(huggingface.ChatOpts{
			URL:         p.HFChatURL,
			Token:       p.HFToken,
			Model:       p.HFChatModel,
			MaxTokens:   m.MaxTokens,
			Temperature: m.Temperature,
			TopP:        m.TopP,
			HTTPClient:  httpClient,
		}), nil
	case ProviderBedrock:
		return a.bedrockClient(ctx)
	case ProviderOllama:
		return ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: p.BaseOllamaEndpoint,
			ModelID:      m.ModelID,
			HTTPClient:   httpClient,
		})
	case ProviderMock:
		return mock.NewGenerator(), nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", p.Generator)
	}
}

func (a *App) nutritionDatabase(ctx context.Context) (platescan.NutritionDatabase, error) {
	p := a.Config.Provider
	switch strings.ToLower(p.NutritionStore) {
	case StoreMemory:
		return db.Builtin(), nil

	case StoreFile:
		return db.LoadTable(ctx, storage.NewFileObject(p.NutritionFilePath))

	case StoreS3:
		if p.NutritionS3Bucket == "" {
			return nil, fmt.Errorf("NUTRITION_S3_BUCKET must be set for the s3 nutrition store")
		}
		client, err := a.S3(ctx)
		if err != nil {
			return nil, err
		}
		return db.LoadTable(ctx, storage.NewS3Object(client, p.NutritionS3Bucket, p.NutritionS3Key))

	case StoreSQLite:
		store, err := db.NewSQLiteStore(p.NutritionSQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		if err := store.Seed(ctx, db.Builtin().Entries()); err != nil {
			return nil, err
		}
		return store, nil

	case StorePostgres:
		store, err := db.NewPostgresStore(ctx, p.NutritionPostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { store.Close(); return nil })
		return store, nil

	default:
		return nil, fmt.Errorf("unknown nutrition store %q", p.NutritionStore)
	}
}
