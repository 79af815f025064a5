// Package httpapi serves the helpdesk answer pipeline over HTTP. The server
// retrieves knowledge-base matches, optionally reranks them, generates an
// answer and escalates degraded responses to the support channel.
package httpapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/voyora/zara/internal/answer"
	"github.com/voyora/zara/internal/escalation"
	"github.com/voyora/zara/internal/kbsearch"
	"github.com/voyora/zara/internal/metrics"
	"github.com/voyora/zara/internal/rates"
	"github.com/voyora/zara/internal/rerank"
	"github.com/voyora/zara/internal/types"
)

// answerer generates answers from ranked search results.
type answerer interface {
	GenerateResponse(ctx context.Context, question string, results []types.SearchResult, queryType string, maxContextChars int) *types.RagAnswer
	Status() answer.ServiceStatus
}

// searcher retrieves knowledge-base matches for a question.
type searcher interface {
	Search(ctx context.Context, query *kbsearch.Query) ([]types.SearchResult, error)
	HealthCheck(ctx context.Context) error
}

// reranker reorders retrieved results by cross-encoder relevance.
type reranker interface {
	Enabled() bool
	Rerank(ctx context.Context, query string, results []types.SearchResult, topK int) ([]types.SearchResult, error)
}

// escalator forwards degraded answers to a human support channel.
type escalator interface {
	Enabled() bool
	Notify(ctx context.Context, esc *escalation.Escalation) error
}

// ratesEngine prices hotel stays through the external rates service.
type ratesEngine interface {
	Configured() bool
	GetRates(ctx context.Context, query *rates.RateQuery) (*rates.RateSheet, error)
	Status() map[string]interface{}
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxRequestBytes int64
	RequestsPerMin  int
}

// ConfigFromApp maps the application configuration onto the server settings.
func ConfigFromApp(cfg *types.Config) *ServerConfig {
	return &ServerConfig{
		Host:            cfg.ServerHost,
		Port:            cfg.ServerPort,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: time.Duration(cfg.ShutdownTimeoutSec) * time.Second,
		MaxRequestBytes: cfg.MaxRequestBytes,
		RequestsPerMin:  cfg.RequestsPerMinute,
	}
}

// Server wires retrieval, reranking, answer generation and escalation behind
// the HTTP API.
type Server struct {
	config    *ServerConfig
	appConfig *types.Config
	answers   answerer
	search    searcher
	reranks   reranker
	escalate  escalator
	rates     ratesEngine
	record    func(types.AnswerMethod)

	httpServer   *http.Server
	logger       *log.Logger
	limiter      *clientLimiter
	shutdownOnce sync.Once
	startedAt    time.Time
}

// NewServer creates the API server. search may be nil when no knowledge base
// is configured; reranks and escalate may be nil when those integrations are
// disabled.
func NewServer(serverConfig *ServerConfig, appConfig *types.Config, answers *answer.Service, search *kbsearch.Client, reranks *rerank.Reranker, escalate *escalation.Notifier, ratesClient *rates.Client, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[httpapi] ", log.LstdFlags)
	}
	if serverConfig == nil {
		serverConfig = ConfigFromApp(appConfig)
	}
	s := &Server{
		config:    serverConfig,
		appConfig: appConfig,
		answers:   answers,
		record:    metrics.RecordAnswer,
		logger:    logger,
		limiter:   newClientLimiter(serverConfig.RequestsPerMin),
		startedAt: time.Now(),
	}
	if search != nil {
		s.search = search
	}
	if reranks != nil {
		s.reranks = reranks
	}
	if escalate != nil {
		s.escalate = escalate
	}
	if ratesClient != nil {
		s.rates = ratesClient
	}
	return s
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.requestIDMiddleware(s.loggingMiddleware(s.securityHeadersMiddleware(mux))),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting helpdesk API at http://%s:%d", s.config.Host, s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errChan:
		return err
	}
}

// shutdown performs graceful shutdown.
func (s *Server) shutdown() error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	})
	return shutdownErr
}

// setupRoutes configures HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/answer", s.handleAnswer)
	mux.HandleFunc("/api/rates", s.handleRates)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/healthz", s.handleHealth)

	return mux
}
