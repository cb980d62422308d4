package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/ai"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/ai/gemini"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/engine"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/logger"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/model"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/secrets"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/trends"
)

const geminiKeyEnv = "GEMINI_API_KEY"

// setup builds the logger and config shared by every command.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Dataset == nil || config.Model == nil || config.Trends == nil {
		logger.Fatal("config is required")
	}

	logger.Debug("starting with config",
		zap.String("dataset", config.Dataset.Path),
		zap.String("model", config.Model.Path),
		zap.Int("trees", config.Model.Trees),
		zap.Int("top_k", config.Trends.TopK),
	)

	return logger, config
}

func newService(config *Config, logger *zap.Logger) (*engine.Service, error) {
	return engine.New(engine.Options{
		Loader:  dataset.NewLoader(config.Dataset.Path, logger),
		Store:   model.NewFileStore(config.Model.Path),
		Trainer: model.NewTrainer(config.Model.Config, logger),
		Matcher: trends.NewMatcher(config.Trends.Weights, config.Trends.TopK, logger),
		Logger:  logger,
	})
}

// newAdvisor returns nil without error when advice is disabled.
func newAdvisor(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Advisor, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   geminiKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiKeyEnv)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewAdvisor(generator, logger.With(zap.String("provider", "gemini")), cfg.Gemini.MaxLogLength), nil
}
