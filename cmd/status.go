package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/voyora/zara/internal/metrics"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the operational status of the helpdesk pipeline",
	Long: `
Print the answer service status (credential state, circuit breaker snapshot,
current mode), knowledge base reachability and cumulative answer counts.
`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "[zara] ", log.LstdFlags)

	status := map[string]interface{}{
		"service": buildAnswerService(cfg, logger).Status(),
	}

	kbStatus := map[string]interface{}{"configured": cfg.OpenSearchEndpoint != ""}
	if searchClient, err := buildSearchClient(cfg, logger); err == nil && searchClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		kbStatus["healthy"] = searchClient.HealthCheck(ctx) == nil
		cancel()
	}
	status["knowledge_base"] = kbStatus

	if err := metrics.Init(cfg.MetricsDBPath); err == nil {
		defer func() { _ = metrics.Close() }()
		if stats := metrics.GetStats(); stats != nil {
			status["answers"] = stats
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(status)
}
