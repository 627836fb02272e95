package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage configuration
	StorageDriver string // "sqlite" or "memory"
	SQLitePath    string

	// Model provider configuration
	ProviderKind    string // "openai" or "scripted"
	ProviderBaseURL string
	ProviderModel   string
	ProviderAPIKey  string

	// Logging
	LogLevel string

	// Feature flags
	EnableCORS    bool
	EnableBreaker bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8000"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageDriver: getEnv("STORAGE_DRIVER", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", "conversations.db"),

		ProviderKind:    getEnv("PROVIDER_KIND", "openai"),
		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", ""),
		ProviderModel:   getEnv("PROVIDER_MODEL", "gpt-4o-mini"),
		ProviderAPIKey:  getEnv("PROVIDER_API_KEY", getEnv("OPENAI_API_KEY", "")),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		EnableBreaker: getEnvBool("ENABLE_BREAKER", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required with the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	switch c.ProviderKind {
	case "openai":
		if c.Environment == "production" && c.ProviderAPIKey == "" {
			return fmt.Errorf("PROVIDER_API_KEY is required in production")
		}
	case "scripted":
	default:
		return fmt.Errorf("unknown provider kind %q", c.ProviderKind)
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
