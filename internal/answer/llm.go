package answer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voyora/zara/internal/types"
)

// chatCompleter is the slice of the OpenAI client used for synthesis.
// *openai.Client satisfies it; tests substitute a stub.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// SynthesisError is the typed failure of a single synthesis attempt. The
// Retryable flag decides whether the failure feeds the circuit breaker.
type SynthesisError struct {
	Type      types.ErrorType
	Message   string
	Retryable bool
	Err       error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// classifyProviderError maps provider failures onto the retryable taxonomy:
// rate limits, connection failures, timeouts and server-side errors are
// retryable; authentication and malformed requests are not.
func classifyProviderError(err error) *SynthesisError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyHTTPStatus(apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyHTTPStatus(reqErr.HTTPStatusCode, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &SynthesisError{
			Type:      types.ErrorTypeTimeout,
			Message:   "completion request timed out",
			Retryable: true,
			Err:       err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &SynthesisError{
			Type:      types.ErrorTypeTimeout,
			Message:   "completion request timed out",
			Retryable: true,
			Err:       err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &SynthesisError{
			Type:      types.ErrorTypeConnection,
			Message:   "failed to reach completion endpoint",
			Retryable: true,
			Err:       err,
		}
	}

	return &SynthesisError{
		Type:      types.ErrorTypeUnknown,
		Message:   "completion request failed",
		Retryable: false,
		Err:       err,
	}
}

func classifyHTTPStatus(status int, err error) *SynthesisError {
	switch {
	case status == 429:
		return &SynthesisError{
			Type:      types.ErrorTypeRateLimit,
			Message:   "provider rate limit reached",
			Retryable: true,
			Err:       err,
		}
	case status >= 500:
		return &SynthesisError{
			Type:      types.ErrorTypeServer,
			Message:   fmt.Sprintf("provider server error (HTTP %d)", status),
			Retryable: true,
			Err:       err,
		}
	case status == 401 || status == 403:
		return &SynthesisError{
			Type:      types.ErrorTypeAuthentication,
			Message:   "provider rejected the credential",
			Retryable: false,
			Err:       err,
		}
	default:
		return &SynthesisError{
			Type:      types.ErrorTypeValidation,
			Message:   fmt.Sprintf("provider rejected the request (HTTP %d)", status),
			Retryable: false,
			Err:       err,
		}
	}
}

// synthesize issues one chat completion over the assembled context. Callers
// own breaker gating and accounting.
func (s *Service) synthesize(ctx context.Context, question, contextBlock, queryType string) (string, error) {
	return s.complete(ctx, buildSystemPrompt(queryType), buildUserPrompt(question, contextBlock))
}

// synthesizeNoContext asks for a conversational acknowledgement that the
// knowledge base has nothing for this question.
func (s *Service) synthesizeNoContext(ctx context.Context, question string) (string, error) {
	return s.complete(ctx, personaPrompt, noContextPrompt(question))
}

func (s *Service) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	client := s.ensureClient()
	if client == nil {
		return "", &SynthesisError{
			Type:      types.ErrorTypeAuthentication,
			Message:   "no usable completion client",
			Retryable: false,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.LLMTimeoutSec)*time.Second)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   s.cfg.LLMMaxTokens,
		Temperature: float32(s.cfg.LLMTemperature),
	})
	if err != nil {
		return "", classifyProviderError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &SynthesisError{
			Type:      types.ErrorTypeValidation,
			Message:   "provider returned no choices",
			Retryable: false,
		}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &SynthesisError{
			Type:      types.ErrorTypeValidation,
			Message:   "provider returned an empty completion",
			Retryable: false,
		}
	}
	return text, nil
}
