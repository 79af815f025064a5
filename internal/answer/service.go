// Package answer generates helpdesk answers from ranked knowledge base
// snippets. Synthesis degrades through a fixed ladder: model-synthesized
// answer, extractive fallback, no-results acknowledgement. GenerateResponse
// is the error boundary of the pipeline and never fails.
package answer

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/voyora/zara/internal/breaker"
	"github.com/voyora/zara/internal/types"
)

var answerTracer = otel.Tracer("zara/answer")

const maxAnswerSources = 5

// APIKeyStatus captures the credential check performed once at construction.
type APIKeyStatus struct {
	Configured bool   `json:"configured"`
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
}

// ServiceStatus is the read-only operational snapshot exposed by Status.
type ServiceStatus struct {
	APIKeyConfigured   bool                   `json:"api_key_configured"`
	APIKeyValid        bool                   `json:"api_key_valid"`
	SynthesisAvailable bool                   `json:"synthesis_available"`
	Mode               string                 `json:"mode"`
	CircuitBreaker     map[string]interface{} `json:"circuit_breaker"`
}

// Service owns the answer generation ladder. Construct once at startup and
// share across requests; the completion client is read-only after its lazy
// construction and the circuit breaker handles its own locking.
type Service struct {
	cfg       *types.Config
	breaker   *breaker.Breaker
	logger    *log.Logger
	keyStatus APIKeyStatus

	mu     sync.Mutex
	client chatCompleter
}

// NewService validates the credential shape and constructs the service. A
// missing or malformed credential is not an error: the service runs in
// fallback-only mode.
func NewService(cfg *types.Config, br *breaker.Breaker, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[answer] ", log.LstdFlags)
	}
	if br == nil {
		br = breaker.New(cfg.BreakerFailureThreshold, breakerCooldown(cfg))
	}

	s := &Service{
		cfg:       cfg,
		breaker:   br,
		logger:    logger,
		keyStatus: checkAPIKey(cfg.OpenAIAPIKey),
	}

	switch s.keyStatus.Reason {
	case "not_set":
		logger.Printf("OPENAI_API_KEY not set; answers will use extractive fallback only")
	case "format_warning":
		logger.Printf("OPENAI_API_KEY does not look like an OpenAI key; answers will use extractive fallback only")
	}

	return s
}

func checkAPIKey(key string) APIKeyStatus {
	key = strings.TrimSpace(key)
	if key == "" {
		return APIKeyStatus{Configured: false, Valid: false, Reason: "not_set"}
	}
	if !strings.HasPrefix(key, "sk-") {
		return APIKeyStatus{Configured: true, Valid: false, Reason: "format_warning"}
	}
	return APIKeyStatus{Configured: true, Valid: true}
}

// ensureClient memoizes the completion client. Returns nil when the
// credential is missing or malformed.
func (s *Service) ensureClient() chatCompleter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client
	}
	if !s.keyStatus.Valid {
		return nil
	}
	s.client = openai.NewClient(strings.TrimSpace(s.cfg.OpenAIAPIKey))
	return s.client
}

// GenerateResponse produces an answer for the question from pre-ranked
// search results. queryType defaults to "general" and maxContextChars to the
// configured budget. The returned answer is always well-formed; every
// internal failure degrades to a lower tier instead of propagating.
func (s *Service) GenerateResponse(ctx context.Context, question string, results []types.SearchResult, queryType string, maxContextChars int) *types.RagAnswer {
	if queryType == "" {
		queryType = "general"
	}
	if maxContextChars <= 0 {
		maxContextChars = s.cfg.MaxContextChars
	}

	ctx, span := answerTracer.Start(ctx, "answer.generate_response")
	defer span.End()
	span.SetAttributes(
		attribute.String("answer.query_type", queryType),
		attribute.Int("answer.result_count", len(results)),
	)

	ans := s.generate(ctx, question, results, queryType, maxContextChars)
	span.SetAttributes(attribute.String("answer.method", string(ans.Method)))
	return ans
}

func (s *Service) generate(ctx context.Context, question string, results []types.SearchResult, queryType string, maxContextChars int) *types.RagAnswer {
	if len(results) == 0 {
		return s.noResultsResponse(ctx, question)
	}

	if s.ensureClient() == nil {
		return s.fallbackResponse(ctx, question, results)
	}

	if !s.breaker.CanExecute() {
		s.logger.Printf("circuit breaker open; skipping synthesis for this request")
		return s.fallbackResponse(ctx, question, results)
	}

	contextBlock := BuildContext(results, maxContextChars)
	text, err := s.synthesize(ctx, question, contextBlock, queryType)
	if err != nil {
		var synErr *SynthesisError
		if errors.As(err, &synErr) && synErr.Retryable {
			s.breaker.RecordFailure()
		}
		s.logger.Printf("synthesis failed, degrading to fallback: %v", err)
		return s.fallbackResponse(ctx, question, results)
	}
	s.breaker.RecordSuccess()

	return &types.RagAnswer{
		Answer:    text,
		Sources:   attributeSources(results),
		Method:    types.MethodRAG,
		QueryType: queryType,
	}
}

// attributeSources lists up to 5 cleaned source attributions, preserving the
// caller-supplied result order.
func attributeSources(results []types.SearchResult) []types.SourceRef {
	n := len(results)
	if n > maxAnswerSources {
		n = maxAnswerSources
	}
	sources := make([]types.SourceRef, 0, n)
	for i := 0; i < n; i++ {
		sources = append(sources, types.SourceRef{
			Filename: CleanSourceName(results[i].Source, &results[i]),
			Score:    results[i].Score,
		})
	}
	return sources
}

// Status reports the operational snapshot; it has no side effects.
func (s *Service) Status() ServiceStatus {
	mode := "fallback"
	if s.keyStatus.Valid {
		mode = "rag"
	}
	return ServiceStatus{
		APIKeyConfigured:   s.keyStatus.Configured,
		APIKeyValid:        s.keyStatus.Valid,
		SynthesisAvailable: s.keyStatus.Valid && s.breaker.State() != breaker.StateOpen,
		Mode:               mode,
		CircuitBreaker:     s.breaker.Status(),
	}
}

// KeyStatus returns the credential check computed at construction.
func (s *Service) KeyStatus() APIKeyStatus {
	return s.keyStatus
}

func breakerCooldown(cfg *types.Config) time.Duration {
	return time.Duration(cfg.BreakerCooldownSec) * time.Second
}
