package di

import (
	"fmt"

	"go.uber.org/zap"

	"rootie/infrastructure/config"
	"rootie/infrastructure/llm"
	"rootie/infrastructure/persistence/abstractions"
	"rootie/infrastructure/persistence/memory"
	"rootie/infrastructure/persistence/sqlite"
	"rootie/interfaces/http/rest"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideRepository creates the storage backend selected by config
func ProvideRepository(cfg *config.Config, logger *zap.Logger) (abstractions.Repository, error) {
	switch cfg.StorageDriver {
	case "sqlite":
		return sqlite.NewRepository(cfg.SQLitePath, logger)
	case "memory":
		return memory.NewRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// ProvideProvider creates the model provider selected by config
func ProvideProvider(cfg *config.Config, logger *zap.Logger) (llm.Provider, error) {
	var provider llm.Provider
	switch cfg.ProviderKind {
	case "openai":
		provider = llm.NewOpenAIProvider(llm.OpenAIOptions{
			APIKey:  cfg.ProviderAPIKey,
			BaseURL: cfg.ProviderBaseURL,
			Model:   cfg.ProviderModel,
		})
	case "scripted":
		provider = llm.NewScriptedProvider()
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.ProviderKind)
	}

	if cfg.EnableBreaker {
		provider = llm.NewBreakerProvider(provider, logger)
	}
	return provider, nil
}

// ProvideRouter creates the HTTP router
func ProvideRouter(repo abstractions.Repository, provider llm.Provider, cfg *config.Config, logger *zap.Logger) *rest.Router {
	return rest.NewRouter(repo, provider, logger, cfg.EnableCORS)
}
