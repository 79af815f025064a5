package cmd

import (
	"fmt"
	"log"

	"github.com/voyora/zara/internal/answer"
	appconfig "github.com/voyora/zara/internal/config"
	"github.com/voyora/zara/internal/kbsearch"
	"github.com/voyora/zara/internal/types"
)

// loadConfig loads and validates the application configuration.
func loadConfig() (*types.Config, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// buildSearchClient creates the knowledge base client when an endpoint is
// configured; it returns nil otherwise so commands can run without retrieval.
func buildSearchClient(cfg *types.Config, logger *log.Logger) (*kbsearch.Client, error) {
	if cfg.OpenSearchEndpoint == "" {
		return nil, nil
	}
	client, err := kbsearch.NewClient(kbsearch.FromAppConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge base client: %w", err)
	}
	return client, nil
}

// buildAnswerService constructs the answer generation service.
func buildAnswerService(cfg *types.Config, logger *log.Logger) *answer.Service {
	return answer.NewService(cfg, nil, logger)
}
