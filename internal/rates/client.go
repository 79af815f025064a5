// Package rates wraps the external rates engine that prices hotel stays.
// Calls are guarded by a dedicated circuit breaker so a failing engine
// degrades helpdesk answers instead of stalling them.
package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/voyora/zara/internal/breaker"
	"github.com/voyora/zara/internal/types"
)

var ratesTracer = otel.Tracer("zara/rates")

// ErrUnavailable is returned without touching the network while the circuit
// breaker is open.
var ErrUnavailable = fmt.Errorf("rates engine temporarily unavailable")

// RatesError is a typed failure of a rates engine call.
type RatesError struct {
	Type       types.ErrorType
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *RatesError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// RateQuery describes a nightly-rate lookup.
type RateQuery struct {
	Destination string `json:"destination"`
	HotelCode   string `json:"hotel_code,omitempty"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	Adults      int    `json:"adults,omitempty"`
}

// RateOption is a single priced option returned by the engine.
type RateOption struct {
	HotelName  string  `json:"hotel_name"`
	RoomType   string  `json:"room_type"`
	BoardBasis string  `json:"board_basis,omitempty"`
	Currency   string  `json:"currency"`
	Nightly    float64 `json:"nightly_rate"`
	Total      float64 `json:"total"`
}

// RateSheet is the engine response for one query.
type RateSheet struct {
	Destination string       `json:"destination"`
	Options     []RateOption `json:"options"`
	FetchedAt   time.Time    `json:"fetched_at"`
}

// Client calls the external rates engine over JSON HTTP.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	breaker    *breaker.Breaker
	logger     *log.Logger
}

// NewClient constructs a rates client from the application configuration.
// The breaker may be shared or dedicated; nil creates a dedicated one.
func NewClient(cfg *types.Config, br *breaker.Breaker, logger *log.Logger) *Client {
	if br == nil {
		br = breaker.New(cfg.BreakerFailureThreshold, time.Duration(cfg.BreakerCooldownSec)*time.Second)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[rates] ", log.LstdFlags)
	}
	timeout := time.Duration(cfg.RatesTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		endpoint:   cfg.RatesAPIEndpoint,
		apiKey:     cfg.RatesAPIKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    br,
		logger:     logger,
	}
}

// Configured reports whether a rates endpoint is set.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// GetRates fetches priced options for the query. Retryable failures feed the
// circuit breaker; while the breaker is open the call fails fast with
// ErrUnavailable.
func (c *Client) GetRates(ctx context.Context, query *RateQuery) (*RateSheet, error) {
	if !c.Configured() {
		return nil, &RatesError{Type: types.ErrorTypeValidation, Message: "rates engine not configured"}
	}
	if query == nil || query.Destination == "" {
		return nil, &RatesError{Type: types.ErrorTypeValidation, Message: "destination is required"}
	}

	if !c.breaker.CanExecute() {
		return nil, ErrUnavailable
	}

	ctx, span := ratesTracer.Start(ctx, "rates.get_rates")
	defer span.End()
	span.SetAttributes(attribute.String("rates.destination", query.Destination))

	sheet, err := c.fetch(ctx, query)
	if err != nil {
		if ratesErr, ok := err.(*RatesError); ok && ratesErr.Retryable {
			c.breaker.RecordFailure()
		}
		return nil, err
	}

	c.breaker.RecordSuccess()
	return sheet, nil
}

func (c *Client) fetch(ctx context.Context, query *RateQuery) (*RateSheet, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, &RatesError{Type: types.ErrorTypeValidation, Message: fmt.Sprintf("failed to encode query: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/rates/search", bytes.NewReader(body))
	if err != nil {
		return nil, &RatesError{Type: types.ErrorTypeValidation, Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RatesError{
			Type:      types.ErrorTypeConnection,
			Message:   fmt.Sprintf("rates engine unreachable: %v", err),
			Retryable: true,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classifyStatus(resp.StatusCode, string(payload))
	}

	var sheet RateSheet
	if err := json.NewDecoder(resp.Body).Decode(&sheet); err != nil {
		return nil, &RatesError{
			Type:    types.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to decode rates response: %v", err),
		}
	}
	if sheet.FetchedAt.IsZero() {
		sheet.FetchedAt = time.Now()
	}
	return &sheet, nil
}

func classifyStatus(statusCode int, body string) *RatesError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &RatesError{
			Type:       types.ErrorTypeRateLimit,
			Message:    "rates engine rate limit reached",
			StatusCode: statusCode,
			Retryable:  true,
		}
	case statusCode >= 500:
		return &RatesError{
			Type:       types.ErrorTypeServer,
			Message:    "rates engine server error",
			StatusCode: statusCode,
			Retryable:  true,
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &RatesError{
			Type:       types.ErrorTypeAuthentication,
			Message:    "rates engine rejected the credential",
			StatusCode: statusCode,
		}
	default:
		return &RatesError{
			Type:       types.ErrorTypeValidation,
			Message:    fmt.Sprintf("rates engine rejected the request: %s", body),
			StatusCode: statusCode,
		}
	}
}

// Status exposes the breaker snapshot for health endpoints.
func (c *Client) Status() map[string]interface{} {
	return c.breaker.Status()
}
