package answer

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyora/zara/internal/breaker"
	"github.com/voyora/zara/internal/types"
)

type stubCompleter struct {
	response string
	err      error
	calls    int
}

func (s *stubCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.response}},
		},
	}, nil
}

func testConfig() *types.Config {
	return &types.Config{
		OpenAIAPIKey:            "sk-test",
		ChatModel:               "gpt-4o-mini",
		LLMTimeoutSec:           2,
		LLMMaxTokens:            200,
		LLMTemperature:          0.7,
		MaxContextChars:         6000,
		BreakerFailureThreshold: 3,
		BreakerCooldownSec:      30,
	}
}

func newTestService(cfg *types.Config, client chatCompleter) *Service {
	svc := NewService(cfg, breaker.New(cfg.BreakerFailureThreshold, 30*time.Second), log.New(io.Discard, "", 0))
	if client != nil {
		svc.client = client
	}
	return svc
}

func sampleResults() []types.SearchResult {
	return []types.SearchResult{
		{Content: "Solana Beach Resort offers 117 sea-facing rooms.", Source: "mauritius.md", Score: 0.85},
		{Content: "Peak season runs from December to April.", Source: "seasons.md", Score: 0.71},
	}
}

func TestGenerateResponseEndToEnd(t *testing.T) {
	stub := &stubCompleter{response: "Solana Beach Resort is lovely!"}
	svc := newTestService(testConfig(), stub)

	ans := svc.GenerateResponse(context.Background(), "What hotels are in Mauritius?", []types.SearchResult{
		{Content: "Solana Beach Resort offers 117 sea-facing rooms.", Source: "mauritius.md", Score: 0.85},
	}, "hotel_info", 0)

	assert.Equal(t, types.MethodRAG, ans.Method)
	assert.Equal(t, "Solana Beach Resort is lovely!", ans.Answer)
	assert.Equal(t, "hotel_info", ans.QueryType)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "Mauritius", ans.Sources[0].Filename)
	assert.Equal(t, 0.85, ans.Sources[0].Score)
}

func TestGenerateResponseNoResults(t *testing.T) {
	svc := newTestService(testConfig(), &stubCompleter{err: errors.New("unreachable")})

	ans := svc.GenerateResponse(context.Background(), "anything", nil, "", 0)

	assert.Contains(t, []types.AnswerMethod{types.MethodNoResults, types.MethodLLMNoContext}, ans.Method)
	assert.NotNil(t, ans.Sources)
	assert.Empty(t, ans.Sources)
	assert.NotEmpty(t, ans.Answer)
}

func TestGenerateResponseNoResultsWithWorkingLLM(t *testing.T) {
	stub := &stubCompleter{response: "I don't have that yet, sorry!"}
	svc := newTestService(testConfig(), stub)

	ans := svc.GenerateResponse(context.Background(), "anything", nil, "", 0)

	assert.Equal(t, types.MethodLLMNoContext, ans.Method)
	assert.Equal(t, "I don't have that yet, sorry!", ans.Answer)
	assert.Empty(t, ans.Sources)
}

func TestGenerateResponseFallbackWithoutCredential(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	svc := newTestService(cfg, nil)

	ans := svc.GenerateResponse(context.Background(), "question", sampleResults(), "", 0)

	assert.Equal(t, types.MethodFallback, ans.Method)
	assert.NotEmpty(t, ans.Answer)
	assert.Contains(t, ans.Answer, "Solana Beach Resort")
}

func TestGenerateResponseMalformedKeyIsFallbackOnly(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = "definitely-not-a-key"
	svc := newTestService(cfg, nil)

	assert.False(t, svc.KeyStatus().Valid)
	assert.True(t, svc.KeyStatus().Configured)
	assert.Equal(t, "format_warning", svc.KeyStatus().Reason)

	ans := svc.GenerateResponse(context.Background(), "question", sampleResults(), "", 0)
	assert.Equal(t, types.MethodFallback, ans.Method)
}

func TestGenerateResponseDegradesOnFailure(t *testing.T) {
	stub := &stubCompleter{err: &openai.APIError{HTTPStatusCode: 500, Message: "boom"}}
	svc := newTestService(testConfig(), stub)

	ans := svc.GenerateResponse(context.Background(), "question", sampleResults(), "", 0)

	assert.Equal(t, types.MethodFallback, ans.Method)
	assert.NotEmpty(t, ans.Answer)
}

func TestRepeatedFailuresOpenBreaker(t *testing.T) {
	stub := &stubCompleter{err: &openai.APIError{HTTPStatusCode: 500, Message: "boom"}}
	svc := newTestService(testConfig(), stub)

	for i := 0; i < 3; i++ {
		svc.GenerateResponse(context.Background(), "q", sampleResults(), "", 0)
	}
	assert.Equal(t, breaker.StateOpen, svc.breaker.State())

	callsBefore := stub.calls
	ans := svc.GenerateResponse(context.Background(), "q", sampleResults(), "", 0)
	assert.Equal(t, types.MethodFallback, ans.Method)
	assert.Equal(t, callsBefore, stub.calls, "open breaker should short-circuit without a provider call")
}

func TestNonRetryableFailureDoesNotFeedBreaker(t *testing.T) {
	stub := &stubCompleter{err: &openai.APIError{HTTPStatusCode: 400, Message: "bad request"}}
	svc := newTestService(testConfig(), stub)

	for i := 0; i < 5; i++ {
		ans := svc.GenerateResponse(context.Background(), "q", sampleResults(), "", 0)
		assert.Equal(t, types.MethodFallback, ans.Method)
	}
	assert.Equal(t, breaker.StateClosed, svc.breaker.State())
}

func TestFallbackDeduplicatesSnippets(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	svc := newTestService(cfg, nil)

	results := []types.SearchResult{
		{Content: "The Maldives transfer is by seaplane.", Source: "a.md", Score: 0.9},
		{Content: "The Maldives transfer is by seaplane.", Source: "b.md", Score: 0.8},
		{Content: "Transfers take 40 minutes.", Source: "c.md", Score: 0.7},
	}

	ans := svc.GenerateResponse(context.Background(), "q", results, "", 0)
	require.Equal(t, types.MethodFallback, ans.Method)
	assert.Equal(t, 1, strings.Count(ans.Answer, "The Maldives transfer is by seaplane."))
	assert.Len(t, ans.Sources, 2)
}

func TestFallbackOnlyConsidersTopThreeResults(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	svc := newTestService(cfg, nil)

	// The first three results collapse to one snippet; the fourth must not
	// be pulled in to pad the answer.
	results := []types.SearchResult{
		{Content: "Check-out is at 11:00.", Source: "a.md", Score: 0.9},
		{Content: "Check-out is at 11:00.", Source: "b.md", Score: 0.8},
		{Content: "Check-out is at 11:00.", Source: "c.md", Score: 0.7},
		{Content: "Late check-out can be booked for a fee.", Source: "d.md", Score: 0.6},
	}

	ans := svc.GenerateResponse(context.Background(), "q", results, "", 0)
	require.Equal(t, types.MethodFallback, ans.Method)
	assert.Equal(t, 1, strings.Count(ans.Answer, "Check-out is at 11:00."))
	assert.NotContains(t, ans.Answer, "Late check-out")
	assert.Len(t, ans.Sources, 1)
}

func TestFallbackCapsSourcesAtThree(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	svc := newTestService(cfg, nil)

	results := make([]types.SearchResult, 6)
	for i := range results {
		results[i] = types.SearchResult{
			Content: "Distinct content number " + string(rune('A'+i)) + ".",
			Source:  "doc.md",
			Score:   1.0 - float64(i)*0.1,
		}
	}

	ans := svc.GenerateResponse(context.Background(), "q", results, "", 0)
	require.Equal(t, types.MethodFallback, ans.Method)
	assert.LessOrEqual(t, len(ans.Sources), 3)
}

func TestRAGCapsSourcesAtFive(t *testing.T) {
	stub := &stubCompleter{response: "Here you go."}
	svc := newTestService(testConfig(), stub)

	results := make([]types.SearchResult, 8)
	for i := range results {
		results[i] = types.SearchResult{Content: "Content.", Source: "doc.md", Score: 0.5}
	}

	ans := svc.GenerateResponse(context.Background(), "q", results, "", 0)
	require.Equal(t, types.MethodRAG, ans.Method)
	assert.Len(t, ans.Sources, 5)
}

func TestAllBlankResultsReachNoResultsPath(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	svc := newTestService(cfg, nil)

	results := []types.SearchResult{
		{Content: "   ", Source: "a.md"},
		{Content: "\n\t", Source: "b.md"},
	}

	ans := svc.GenerateResponse(context.Background(), "q", results, "", 0)
	assert.Equal(t, types.MethodNoResults, ans.Method)
	assert.Empty(t, ans.Sources)
}

func TestStatusSnapshot(t *testing.T) {
	svc := newTestService(testConfig(), nil)
	status := svc.Status()

	assert.True(t, status.APIKeyConfigured)
	assert.True(t, status.APIKeyValid)
	assert.True(t, status.SynthesisAvailable)
	assert.Equal(t, "rag", status.Mode)
	assert.Equal(t, string(breaker.StateClosed), status.CircuitBreaker["state"])

	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	fallbackSvc := newTestService(cfg, nil)
	status = fallbackSvc.Status()
	assert.Equal(t, "fallback", status.Mode)
	assert.False(t, status.SynthesisAvailable)
}

func TestClassifyProviderError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		errType   types.ErrorType
	}{
		{"rate limit", &openai.APIError{HTTPStatusCode: 429}, true, types.ErrorTypeRateLimit},
		{"server error", &openai.APIError{HTTPStatusCode: 503}, true, types.ErrorTypeServer},
		{"auth", &openai.APIError{HTTPStatusCode: 401}, false, types.ErrorTypeAuthentication},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false, types.ErrorTypeValidation},
		{"timeout", context.DeadlineExceeded, true, types.ErrorTypeTimeout},
		{"unknown", errors.New("weird"), false, types.ErrorTypeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classified := classifyProviderError(tc.err)
			assert.Equal(t, tc.retryable, classified.Retryable)
			assert.Equal(t, tc.errType, classified.Type)
		})
	}
}
