package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Oracle provider selection
const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Concept expansion service
	OracleProvider string // http | openai
	OracleBaseURL  string
	OracleTimeout  time.Duration

	// OpenAI-backed oracle (development / fallback)
	OpenAIAPIKey string
	OpenAIModel  string

	// Runtime config file (optional, hot-reloaded)
	RuntimeConfigPath string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		OracleProvider: getEnv("ORACLE_PROVIDER", ProviderHTTP),
		OracleBaseURL:  getEnv("ORACLE_BASE_URL", "http://localhost:9090"),
		OracleTimeout:  time.Duration(getEnvInt("ORACLE_TIMEOUT_MS", 30000)) * time.Millisecond,

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		RuntimeConfigPath: getEnv("RUNTIME_CONFIG_FILE", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.OracleProvider {
	case ProviderHTTP:
		if c.OracleBaseURL == "" {
			return fmt.Errorf("ORACLE_BASE_URL is required for the http oracle provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai oracle provider")
		}
	default:
		return fmt.Errorf("unknown oracle provider: %s", c.OracleProvider)
	}

	if c.OracleTimeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive")
	}

	return nil
}

// IsProduction returns true in production environments
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
