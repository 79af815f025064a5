package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"

	"github.com/voyora/zara/internal/types"
)

// Type alias for Config
type Config = types.Config

// Load loads configuration from environment variables. A local .env file is
// applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	// Clamp LLM call budget; the route-level budget assumes single-digit seconds
	if config.LLMTimeoutSec < 1 {
		config.LLMTimeoutSec = 1
	}
	if config.LLMTimeoutSec > 10 {
		config.LLMTimeoutSec = 10
	}

	if config.LLMMaxTokens < 50 {
		config.LLMMaxTokens = 50
	}
	if config.LLMMaxTokens > 4000 {
		config.LLMMaxTokens = 4000
	}

	if config.LLMTemperature < 0 {
		config.LLMTemperature = 0
	}
	if config.LLMTemperature > 2 {
		config.LLMTemperature = 2
	}

	if config.MaxContextChars < 0 {
		config.MaxContextChars = 0
	}

	if config.TopK < 1 {
		config.TopK = 1
	}
	if config.TopK > 50 {
		config.TopK = 50
	}

	if config.BreakerFailureThreshold < 1 {
		config.BreakerFailureThreshold = 1
	}
	if config.BreakerCooldownSec < 1 {
		config.BreakerCooldownSec = 1
	}

	if config.RetryAttempts < 0 {
		config.RetryAttempts = 0
	}
	if config.RetryAttempts > 10 {
		config.RetryAttempts = 10
	}

	if config.OpenSearchEndpoint != "" {
		if err := validateEndpointURL("OpenSearch", config.OpenSearchEndpoint); err != nil {
			return err
		}
	}
	if config.RatesAPIEndpoint != "" {
		if err := validateEndpointURL("rates API", config.RatesAPIEndpoint); err != nil {
			return err
		}
	}
	if config.RerankEndpoint != "" {
		if err := validateEndpointURL("rerank", config.RerankEndpoint); err != nil {
			return err
		}
	}

	if config.SlackBotToken != "" && config.SlackSupportChannel == "" {
		return fmt.Errorf("SLACK_SUPPORT_CHANNEL is required when SLACK_BOT_TOKEN is set")
	}

	if config.ServerPort < 1 || config.ServerPort > 65535 {
		config.ServerPort = 8080
	}
	if config.RequestsPerMinute < 1 {
		config.RequestsPerMinute = 60
	}
	if config.MaxRequestBytes < 1024 {
		config.MaxRequestBytes = 1024
	}

	return nil
}

func validateEndpointURL(name, endpoint string) error {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid %s endpoint URL: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s endpoint must use http or https scheme, got: %s", name, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s endpoint is missing a host", name)
	}
	return nil
}

// HasOpenAIKey reports whether an OpenAI credential is configured at all.
func HasOpenAIKey(config *Config) bool {
	return strings.TrimSpace(config.OpenAIAPIKey) != ""
}
