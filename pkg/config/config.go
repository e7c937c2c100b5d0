package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Provider backends.
const (
	ProviderAnthropic = "anthropic"
	ProviderGateway   = "gateway"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Provider selection: "anthropic" talks to the Claude API directly,
	// "gateway" goes through an OpenAI-compatible relay (LiteLLM, OpenRouter).
	Provider string

	// Anthropic
	AnthropicAPIKey  string
	AnthropicBaseURL string

	// Gateway
	GatewayURL    string
	GatewayAPIKey string

	// Completion defaults
	ModelID        string
	MaxTokens      int
	RequestTimeout int // seconds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		Provider:         getEnv("PROVIDER", ProviderAnthropic),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		GatewayURL:       getEnv("GATEWAY_URL", "http://localhost:4000"),
		GatewayAPIKey:    getEnv("GATEWAY_API_KEY", ""),
		ModelID:          getEnv("MODEL_ID", "claude-opus-4-1-20250805"),
		MaxTokens:        getEnvInt("MAX_TOKENS", 4096),
		RequestTimeout:   getEnvInt("HTTP_TIMEOUT_SECONDS", 120),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		// An API key may also arrive per request as a node input, so an
		// empty key here is only rejected at call time.
		if c.AnthropicBaseURL == "" {
			return fmt.Errorf("ANTHROPIC_BASE_URL is required")
		}
	case ProviderGateway:
		if c.GatewayURL == "" {
			return fmt.Errorf("GATEWAY_URL is required")
		}
	default:
		return fmt.Errorf("PROVIDER must be %q or %q, got %q", ProviderAnthropic, ProviderGateway, c.Provider)
	}
	if c.ModelID == "" {
		return fmt.Errorf("MODEL_ID is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}
