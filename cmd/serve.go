package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voyora/zara/internal/escalation"
	"github.com/voyora/zara/internal/httpapi"
	"github.com/voyora/zara/internal/metrics"
	"github.com/voyora/zara/internal/observability"
	"github.com/voyora/zara/internal/rates"
	"github.com/voyora/zara/internal/rerank"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the helpdesk HTTP API",
	Long: `
Start the helpdesk API server. Requests to POST /api/answer retrieve matching
knowledge base documents, optionally rerank them with a cross-encoder, and
generate an answer. Degraded answers are escalated to the Slack support
channel when one is configured.

Examples:
  zara serve
  zara serve --host 0.0.0.0 --port 9090
`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind (defaults to configuration)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to bind (defaults to configuration)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.ServerHost = serveHost
	}
	if servePort > 0 {
		cfg.ServerPort = servePort
	}

	logger := log.New(log.Writer(), "[zara] ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Observability is best-effort; the service runs without it.
	shutdownOTel, err := observability.Init(cfg)
	if err != nil {
		logger.Printf("OpenTelemetry initialization failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			logger.Printf("OpenTelemetry shutdown error: %v", err)
		}
	}()

	if err := metrics.Init(cfg.MetricsDBPath); err != nil {
		logger.Printf("usage metrics disabled: %v", err)
	} else {
		defer func() { _ = metrics.Close() }()
		if err := metrics.InitOTelMetrics(); err != nil {
			logger.Printf("failed to register answer gauge: %v", err)
		}
	}

	searchClient, err := buildSearchClient(cfg, logger)
	if err != nil {
		return err
	}
	if searchClient == nil {
		logger.Println("OPENSEARCH_ENDPOINT not set; answers will have no retrieval context")
	}

	answerService := buildAnswerService(cfg, logger)
	rerankService := rerank.New(cfg, logger)
	notifier := escalation.New(cfg, logger)
	if notifier.Enabled() {
		logger.Printf("Slack escalation enabled for channel %s", cfg.SlackSupportChannel)
	}

	var ratesClient *rates.Client
	if cfg.RatesAPIEndpoint != "" {
		ratesClient = rates.NewClient(cfg, nil, logger)
		logger.Printf("rates engine enabled at %s", cfg.RatesAPIEndpoint)
	}

	server := httpapi.NewServer(httpapi.ConfigFromApp(cfg), cfg, answerService, searchClient, rerankService, notifier, ratesClient, logger)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
