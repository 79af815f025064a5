package answer

import (
	"context"
	"errors"
	"strings"

	"github.com/voyora/zara/internal/types"
)

const maxFallbackSnippets = 3

const fallbackClosing = "Let me know if you'd like more detail on any of this."

// fallbackResponse builds a deterministic extractive answer when synthesis
// is unavailable or failed. Only the first 3 results are considered;
// exact-duplicate snippets among them are kept once. When nothing usable
// remains it degrades to the no-results path.
func (s *Service) fallbackResponse(ctx context.Context, question string, results []types.SearchResult) *types.RagAnswer {
	if len(results) > maxFallbackSnippets {
		results = results[:maxFallbackSnippets]
	}

	snippets := make([]string, 0, maxFallbackSnippets)
	sources := make([]types.SourceRef, 0, maxFallbackSnippets)
	seen := make(map[string]struct{})

	for i := range results {
		cleaned := CleanContent(results[i].Content)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}

		snippets = append(snippets, truncateAtSentence(cleaned, snippetCharLimit))
		sources = append(sources, types.SourceRef{
			Filename: CleanSourceName(results[i].Source, &results[i]),
			Score:    results[i].Score,
		})
	}

	if len(snippets) == 0 {
		return s.noResultsResponse(ctx, question)
	}

	answerText := strings.Join(snippets, "\n\n") + "\n\n" + fallbackClosing

	return &types.RagAnswer{
		Answer:  answerText,
		Sources: sources,
		Method:  types.MethodFallback,
	}
}

// noResultsResponse acknowledges a knowledge gap. When a completion client is
// configured and the breaker permits it, the model phrases the
// acknowledgement; otherwise (or on any failure) a fixed friendly message is
// returned.
func (s *Service) noResultsResponse(ctx context.Context, question string) *types.RagAnswer {
	if s.ensureClient() != nil && s.breaker.CanExecute() {
		text, err := s.synthesizeNoContext(ctx, question)
		if err == nil {
			s.breaker.RecordSuccess()
			return &types.RagAnswer{
				Answer:  text,
				Sources: []types.SourceRef{},
				Method:  types.MethodLLMNoContext,
			}
		}

		var synErr *SynthesisError
		if errors.As(err, &synErr) && synErr.Retryable {
			s.breaker.RecordFailure()
		}
		s.logger.Printf("no-context synthesis failed, using static message: %v", err)
	}

	return &types.RagAnswer{
		Answer:  staticNoResultsMessage,
		Sources: []types.SourceRef{},
		Method:  types.MethodNoResults,
	}
}
