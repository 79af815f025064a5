package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voyora/zara/internal/breaker"
	"github.com/voyora/zara/internal/types"
)

func testConfig(endpoint string) *types.Config {
	return &types.Config{
		RatesAPIEndpoint:        endpoint,
		RatesAPIKey:             "test-key",
		RatesTimeoutSec:         2,
		BreakerFailureThreshold: 3,
		BreakerCooldownSec:      30,
	}
}

func TestGetRatesSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/rates/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		var query RateQuery
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			t.Fatalf("failed to decode query: %v", err)
		}
		if query.Destination != "Maldives" {
			t.Errorf("unexpected destination: %s", query.Destination)
		}
		_ = json.NewEncoder(w).Encode(&RateSheet{
			Destination: "Maldives",
			Options: []RateOption{
				{HotelName: "Coral Atoll Resort", RoomType: "Water Villa", Currency: "USD", Nightly: 820, Total: 5740},
			},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, nil)
	sheet, err := client.GetRates(context.Background(), &RateQuery{
		Destination: "Maldives",
		CheckIn:     "2026-10-01",
		CheckOut:    "2026-10-08",
	})
	if err != nil {
		t.Fatalf("GetRates failed: %v", err)
	}
	if len(sheet.Options) != 1 {
		t.Fatalf("expected 1 option, got %d", len(sheet.Options))
	}
	if sheet.Options[0].Nightly != 820 {
		t.Errorf("unexpected nightly rate: %v", sheet.Options[0].Nightly)
	}
	if sheet.FetchedAt.IsZero() {
		t.Error("FetchedAt should be filled in")
	}
}

func TestGetRatesValidation(t *testing.T) {
	client := NewClient(testConfig("http://localhost:9"), nil, nil)
	if _, err := client.GetRates(context.Background(), &RateQuery{}); err == nil {
		t.Fatal("expected validation error for empty destination")
	}

	unconfigured := NewClient(testConfig(""), nil, nil)
	_, err := unconfigured.GetRates(context.Background(), &RateQuery{Destination: "Bali"})
	ratesErr, ok := err.(*RatesError)
	if !ok {
		t.Fatalf("expected RatesError, got %T", err)
	}
	if ratesErr.Type != types.ErrorTypeValidation {
		t.Errorf("expected validation error, got %s", ratesErr.Type)
	}
}

func TestGetRatesServerErrorTripsBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	br := breaker.New(3, 30*time.Second)
	client := NewClient(testConfig(server.URL), br, nil)
	query := &RateQuery{Destination: "Zanzibar", CheckIn: "2026-11-01", CheckOut: "2026-11-05"}

	for i := 0; i < 3; i++ {
		_, err := client.GetRates(context.Background(), query)
		ratesErr, ok := err.(*RatesError)
		if !ok {
			t.Fatalf("expected RatesError, got %T", err)
		}
		if !ratesErr.Retryable {
			t.Error("server error should be retryable")
		}
	}
	if br.State() != breaker.StateOpen {
		t.Fatalf("breaker should be open after 3 failures, state=%s", br.State())
	}

	if _, err := client.GetRates(context.Background(), query); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable while open, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("open breaker must not reach the network, calls=%d", got)
	}
}

func TestGetRatesAuthErrorDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	br := breaker.New(3, 30*time.Second)
	client := NewClient(testConfig(server.URL), br, nil)
	query := &RateQuery{Destination: "Dubai", CheckIn: "2026-09-10", CheckOut: "2026-09-14"}

	for i := 0; i < 5; i++ {
		_, err := client.GetRates(context.Background(), query)
		ratesErr, ok := err.(*RatesError)
		if !ok {
			t.Fatalf("expected RatesError, got %T", err)
		}
		if ratesErr.Type != types.ErrorTypeAuthentication {
			t.Errorf("expected authentication error, got %s", ratesErr.Type)
		}
		if ratesErr.Retryable {
			t.Error("authentication error must not be retryable")
		}
	}
	if br.State() != breaker.StateClosed {
		t.Errorf("non-retryable failures must not open the breaker, state=%s", br.State())
	}
}
