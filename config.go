package platescan

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

type PipelineConfig struct {
	ConfidenceThreshold     float64       `env:"CONFIDENCE_THRESHOLD,default=0.6"`
	MaxCandidates           int           `env:"MAX_CANDIDATES,default=5"`
	MaxClarificationChoices int           `env:"MAX_CLARIFICATION_CHOICES,default=3"`
	StrategyTimeout         time.Duration `env:"STRATEGY_TIMEOUT,default=15s"`
	StrategyAttempts        int           `env:"STRATEGY_ATTEMPTS,default=1"`
}

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type ProviderConfig struct {
	Classifier     string `env:"CLASSIFIER_PROVIDER,default=huggingface"`
	Generator      string `env:"GENERATOR_PROVIDER,default=huggingface"`
	NutritionStore string `env:"NUTRITION_STORE,default=memory"`

	BaseOllamaEndpoint string `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	MealDBBaseURL      string `env:"MEALDB_BASE_URL,default=https://www.themealdb.com/api/json/v1/1"`

	HFToken         string `env:"HF_TOKEN"`
	HFClassifierURL string `env:"HF_CLASSIFIER_URL,default=https://router.huggingface.co/hf-inference/models/nateraw/food"`
	HFChatURL       string `env:"HF_CHAT_URL,default=https://router.huggingface.co/v1/chat/completions"`
	HFChatModel     string `env:"HF_CHAT_MODEL,default=meta-llama/Llama-3.1-8B-Instruct"`

	NutritionFilePath    string `env:"NUTRITION_FILE_PATH,default=artifacts/nutrition.json"`
	NutritionS3Bucket    string `env:"NUTRITION_S3_BUCKET"`
	NutritionS3Key       string `env:"NUTRITION_S3_KEY,default=nutrition.json"`
	NutritionSQLitePath  string `env:"NUTRITION_SQLITE_PATH,default=artifacts/nutrition.db"`
	NutritionPostgresDSN string `env:"NUTRITION_POSTGRES_DSN"`

	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"SLACK_CHANNEL,default=#food"`
}

type Config struct {
	Pipeline PipelineConfig
	Model    ModelConfig
	Provider ProviderConfig
}

// LoadConfig decodes every config group from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	for name, target := range map[string]any{
		"pipeline": &cfg.Pipeline,
		"model":    &cfg.Model,
		"provider": &cfg.Provider,
	} {
		if err := decode(target); err != nil {
			return Config{}, fmt.Errorf("failed to decode %s config: %w", name, err)
		}
	}
	return cfg, nil
}

// decode rejects malformed values. Every group has defaulted fields, so an empty environment still decodes.
func decode(target any) error {
	return envdecode.StrictDecode(target)
}
