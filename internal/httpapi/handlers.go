package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/voyora/zara/internal/escalation"
	"github.com/voyora/zara/internal/kbsearch"
	"github.com/voyora/zara/internal/rates"
	"github.com/voyora/zara/internal/types"
)

// answerRequest is the POST /api/answer payload.
type answerRequest struct {
	Question    string            `json:"question"`
	QueryType   string            `json:"query_type,omitempty"`
	TopK        int               `json:"top_k,omitempty"`
	ContextSize int               `json:"context_size,omitempty"`
	Filters     map[string]string `json:"filters,omitempty"`
}

// answerResponse wraps the generated answer with the request ID.
type answerResponse struct {
	types.RagAnswer
	RequestID string `json:"request_id"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	s.writeJSON(w, statusCode, errorResponse{
		Error:     message,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// handleAnswer runs the full pipeline: retrieve, rerank, generate, escalate.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.limiter.allow(clientKey(r)) {
		s.writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again shortly")
		return
	}

	if s.config.MaxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBytes)
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Question == "" {
		s.writeError(w, r, http.StatusBadRequest, "question is required")
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.appConfig.TopK
	}

	results := s.retrieve(r.Context(), &req, topK)
	ans := s.answers.GenerateResponse(r.Context(), req.Question, results, req.QueryType, req.ContextSize)
	s.record(ans.Method)

	if ans.Method != types.MethodRAG {
		s.escalateDegraded(&req, ans, requestIDFromContext(r.Context()))
	}

	s.writeJSON(w, http.StatusOK, answerResponse{
		RagAnswer: *ans,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// retrieve fetches and optionally reranks knowledge-base matches. Retrieval
// failures yield an empty result set; the answer service degrades from there.
func (s *Server) retrieve(ctx context.Context, req *answerRequest, topK int) []types.SearchResult {
	if s.search == nil {
		return nil
	}

	results, err := s.search.Search(ctx, &kbsearch.Query{
		Text:    req.Question,
		Size:    topK,
		Filters: req.Filters,
	})
	if err != nil {
		s.logger.Printf("knowledge base search failed: %v", err)
		return nil
	}

	if s.reranks != nil && s.reranks.Enabled() && len(results) > 1 {
		reranked, err := s.reranks.Rerank(ctx, req.Question, results, topK)
		if err != nil {
			s.logger.Printf("rerank failed, keeping BM25 order: %v", err)
			return results
		}
		return reranked
	}
	return results
}

// escalateDegraded posts a degraded answer to the support channel without
// blocking the response.
func (s *Server) escalateDegraded(req *answerRequest, ans *types.RagAnswer, requestID string) {
	if s.escalate == nil || !s.escalate.Enabled() {
		return
	}

	esc := &escalation.Escalation{
		Question:  req.Question,
		Method:    ans.Method,
		QueryType: ans.QueryType,
		RequestID: requestID,
		Sources:   ans.Sources,
		Timestamp: time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.escalate.Notify(ctx, esc); err != nil {
			s.logger.Printf("escalation failed: %v", err)
		}
	}()
}

// handleRates prices a hotel stay through the external rates engine.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.rates == nil || !s.rates.Configured() {
		s.writeError(w, r, http.StatusNotImplemented, "rates engine is not configured")
		return
	}
	if !s.limiter.allow(clientKey(r)) {
		s.writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again shortly")
		return
	}

	if s.config.MaxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBytes)
	}

	var query rates.RateQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sheet, err := s.rates.GetRates(r.Context(), &query)
	if err != nil {
		if err == rates.ErrUnavailable {
			s.writeError(w, r, http.StatusServiceUnavailable, "rates engine temporarily unavailable")
			return
		}
		var ratesErr *rates.RatesError
		if errors.As(err, &ratesErr) && ratesErr.Type == types.ErrorTypeValidation {
			s.writeError(w, r, http.StatusBadRequest, ratesErr.Message)
			return
		}
		s.logger.Printf("rates lookup failed: %v", err)
		s.writeError(w, r, http.StatusBadGateway, "rates engine request failed")
		return
	}

	s.writeJSON(w, http.StatusOK, sheet)
}

// handleStatus reports the operational snapshot of the pipeline.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	kbStatus := map[string]interface{}{
		"configured": s.search != nil,
	}
	if s.search != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		kbStatus["healthy"] = s.search.HealthCheck(ctx) == nil
	}

	payload := map[string]interface{}{
		"service":            s.answers.Status(),
		"knowledge_base":     kbStatus,
		"rerank_enabled":     s.reranks != nil && s.reranks.Enabled(),
		"escalation_enabled": s.escalate != nil && s.escalate.Enabled(),
		"uptime_seconds":     int64(time.Since(s.startedAt).Seconds()),
	}
	if s.rates != nil && s.rates.Configured() {
		payload["rates_engine"] = s.rates.Status()
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
