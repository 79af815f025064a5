package types

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeConnection     ErrorType = "connection"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeServer         ErrorType = "server"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeCircuitOpen    ErrorType = "circuit_open"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Config represents the helpdesk service configuration
type Config struct {
	// OpenAI configuration
	OpenAIAPIKey   string  `json:"-" env:"OPENAI_API_KEY"`
	ChatModel      string  `json:"chat_model" env:"ZARA_CHAT_MODEL,default=gpt-4o-mini"`
	LLMTimeoutSec  int     `json:"llm_timeout_seconds" env:"ZARA_LLM_TIMEOUT_SECONDS,default=8"`
	LLMMaxTokens   int     `json:"llm_max_tokens" env:"ZARA_LLM_MAX_TOKENS,default=500"`
	LLMTemperature float64 `json:"llm_temperature" env:"ZARA_LLM_TEMPERATURE,default=0.7"`

	// Answer generation
	MaxContextChars int `json:"max_context_chars" env:"ZARA_MAX_CONTEXT_CHARS,default=6000"`
	TopK            int `json:"top_k" env:"ZARA_TOP_K,default=5"`

	// Circuit breaker
	BreakerFailureThreshold int `json:"breaker_failure_threshold" env:"ZARA_BREAKER_FAILURE_THRESHOLD,default=3"`
	BreakerCooldownSec      int `json:"breaker_cooldown_seconds" env:"ZARA_BREAKER_COOLDOWN_SECONDS,default=30"`

	// Knowledge base (OpenSearch)
	OpenSearchEndpoint   string `json:"opensearch_endpoint" env:"OPENSEARCH_ENDPOINT"`
	OpenSearchUsername   string `json:"opensearch_username" env:"OPENSEARCH_USERNAME"`
	OpenSearchPassword   string `json:"-" env:"OPENSEARCH_PASSWORD"`
	OpenSearchIndex      string `json:"opensearch_index" env:"OPENSEARCH_INDEX,default=zara-kb"`
	OpenSearchTimeoutSec int    `json:"opensearch_timeout_seconds" env:"OPENSEARCH_TIMEOUT_SECONDS,default=10"`
	RetryAttempts        int    `json:"retry_attempts" env:"ZARA_RETRY_ATTEMPTS,default=2"`
	RetryDelaySec        int    `json:"retry_delay_seconds" env:"ZARA_RETRY_DELAY_SECONDS,default=1"`

	// External rates engine
	RatesAPIEndpoint   string `json:"rates_api_endpoint" env:"RATES_API_ENDPOINT"`
	RatesAPIKey        string `json:"-" env:"RATES_API_KEY"`
	RatesTimeoutSec    int    `json:"rates_timeout_seconds" env:"RATES_TIMEOUT_SECONDS,default=5"`
	RatesRetryAttempts int    `json:"rates_retry_attempts" env:"RATES_RETRY_ATTEMPTS,default=2"`

	// Cross-encoder reranker (optional)
	RerankEndpoint   string `json:"rerank_endpoint" env:"RERANK_ENDPOINT"`
	RerankModel      string `json:"rerank_model" env:"RERANK_MODEL,default=cross-encoder/ms-marco-MiniLM-L-6-v2"`
	RerankTimeoutSec int    `json:"rerank_timeout_seconds" env:"RERANK_TIMEOUT_SECONDS,default=5"`

	// Slack escalation (optional)
	SlackBotToken        string `json:"-" env:"SLACK_BOT_TOKEN"`
	SlackSupportChannel  string `json:"slack_support_channel" env:"SLACK_SUPPORT_CHANNEL"`
	EscalationsPerMinute int    `json:"escalations_per_minute" env:"ZARA_ESCALATIONS_PER_MINUTE,default=10"`

	// HTTP API server
	ServerHost         string `json:"server_host" env:"ZARA_SERVER_HOST,default=localhost"`
	ServerPort         int    `json:"server_port" env:"ZARA_SERVER_PORT,default=8080"`
	RequestsPerMinute  int    `json:"requests_per_minute" env:"ZARA_REQUESTS_PER_MINUTE,default=60"`
	MaxRequestBytes    int64  `json:"max_request_bytes" env:"ZARA_MAX_REQUEST_BYTES,default=65536"`
	ShutdownTimeoutSec int    `json:"shutdown_timeout_seconds" env:"ZARA_SHUTDOWN_TIMEOUT_SECONDS,default=30"`

	// Usage metrics
	MetricsDBPath string `json:"metrics_db_path" env:"ZARA_METRICS_DB_PATH"`

	// OpenTelemetry
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string  `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string  `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
	OTelMetricIntervalSec    int     `json:"otel_metric_interval_seconds" env:"OTEL_METRIC_EXPORT_INTERVAL_SECONDS,default=60"`
}
