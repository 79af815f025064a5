// Package rerank reorders BM25 search hits with an external cross-encoder
// service. Reranking is optional; when the service is unconfigured or
// unreachable the caller keeps the original BM25 ordering.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/voyora/zara/internal/types"
)

var rerankTracer = otel.Tracer("zara/rerank")

// Reranker scores (query, document) pairs with a cross-encoder model.
type Reranker struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *log.Logger

	mu        sync.Mutex
	connected bool
}

// New constructs a Reranker from the application configuration.
func New(cfg *types.Config, logger *log.Logger) *Reranker {
	if logger == nil {
		logger = log.New(log.Writer(), "[rerank] ", log.LstdFlags)
	}
	timeout := time.Duration(cfg.RerankTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Reranker{
		endpoint:   cfg.RerankEndpoint,
		model:      cfg.RerankModel,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Enabled reports whether a rerank endpoint is configured.
func (r *Reranker) Enabled() bool {
	return r != nil && r.endpoint != ""
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      int      `json:"top_k,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"relevance_score"`
	} `json:"results"`
}

// ensureConnected probes the service health endpoint once per process; the
// result is memoized so the hot path never re-probes.
func (r *Reranker) ensureConnected(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connected {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reranker health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reranker health check returned HTTP %d", resp.StatusCode)
	}

	r.connected = true
	return nil
}

// Rerank reorders results by cross-encoder relevance to the query. On any
// failure the original slice is returned unchanged together with the error so
// callers can degrade to BM25 order.
func (r *Reranker) Rerank(ctx context.Context, query string, results []types.SearchResult, topK int) ([]types.SearchResult, error) {
	if !r.Enabled() || len(results) == 0 {
		return results, nil
	}
	if err := r.ensureConnected(ctx); err != nil {
		return results, err
	}

	ctx, span := rerankTracer.Start(ctx, "rerank.rerank")
	defer span.End()
	span.SetAttributes(attribute.Int("rerank.candidates", len(results)))

	documents := make([]string, len(results))
	for i, result := range results {
		documents[i] = result.Content
	}

	body, err := json.Marshal(&rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopK:      topK,
	})
	if err != nil {
		return results, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/rerank", bytes.NewReader(body))
	if err != nil {
		return results, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return results, fmt.Errorf("rerank request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return results, fmt.Errorf("rerank service returned HTTP %d", resp.StatusCode)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return results, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	reordered := make([]types.SearchResult, 0, len(parsed.Results))
	sort.SliceStable(parsed.Results, func(i, j int) bool {
		return parsed.Results[i].Score > parsed.Results[j].Score
	})
	for _, item := range parsed.Results {
		if item.Index < 0 || item.Index >= len(results) {
			continue
		}
		result := results[item.Index]
		result.Score = item.Score
		reordered = append(reordered, result)
	}
	if len(reordered) == 0 {
		return results, fmt.Errorf("rerank response contained no usable indices")
	}
	if topK > 0 && len(reordered) > topK {
		reordered = reordered[:topK]
	}
	return reordered, nil
}
