// Package kbsearch retrieves ranked travel knowledge base snippets from
// OpenSearch for answer generation.
package kbsearch

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	opensearch "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"golang.org/x/time/rate"

	"github.com/voyora/zara/internal/types"
)

// Config holds the OpenSearch connection settings for the knowledge base.
type Config struct {
	Endpoint        string
	Username        string
	Password        string
	Index           string
	RequestTimeout  time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	RateLimit       float64
	RateBurst       int
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// FromAppConfig derives a kbsearch Config from the application configuration.
func FromAppConfig(cfg *types.Config) *Config {
	return &Config{
		Endpoint:       cfg.OpenSearchEndpoint,
		Username:       cfg.OpenSearchUsername,
		Password:       cfg.OpenSearchPassword,
		Index:          cfg.OpenSearchIndex,
		RequestTimeout: time.Duration(cfg.OpenSearchTimeoutSec) * time.Second,
		MaxRetries:     cfg.RetryAttempts,
		RetryDelay:     time.Duration(cfg.RetryDelaySec) * time.Second,
	}
}

// Client wraps the OpenSearch API client with rate limiting and retries.
type Client struct {
	client      *opensearchapi.Client
	rateLimiter *rate.Limiter
	config      *Config
	logger      *log.Logger
}

func NewClient(cfg *Config, logger *log.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[kbsearch] ", log.LstdFlags)
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10.0
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns / 2,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	}

	osClient, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: []string{cfg.Endpoint},
			Username:  cfg.Username,
			Password:  cfg.Password,
			Transport: transport,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	return &Client{
		client:      osClient,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		config:      cfg,
		logger:      logger,
	}, nil
}

// HealthCheck verifies cluster reachability.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	if _, err := c.client.Cluster.Health(ctx, &opensearchapi.ClusterHealthReq{}); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// RetryableOperation defines a function that can be retried
type RetryableOperation func() error

// ExecuteWithRetry executes an operation with exponential backoff retry logic
func (c *Client) ExecuteWithRetry(ctx context.Context, operation RetryableOperation, operationName string) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.config.RetryDelay
			c.logger.Printf("retrying %s after %v (attempt %d/%d)",
				operationName, delay, attempt, c.config.MaxRetries)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := operation(); err != nil {
			lastErr = err
			if searchErr, ok := err.(*SearchError); ok && !searchErr.IsRetryable() {
				c.logger.Printf("%s failed with non-retryable error: %v", operationName, err)
				return err
			}
			c.logger.Printf("%s failed (attempt %d/%d): %v",
				operationName, attempt+1, c.config.MaxRetries+1, err)
			continue
		}
		return nil
	}

	return fmt.Errorf("%s failed after %d attempts, last error: %w",
		operationName, c.config.MaxRetries+1, lastErr)
}
