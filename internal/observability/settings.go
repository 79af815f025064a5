package observability

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/voyora/zara/internal/types"
)

const (
	protocolHTTP = "http/protobuf"
	protocolGRPC = "grpc"

	defaultServiceName    = "zara"
	defaultMetricInterval = 60 * time.Second
)

// settings is the resolved, validated OTel configuration. Only the knobs the
// service reads from the environment exist here.
type settings struct {
	enabled        bool
	serviceName    string
	endpoint       string
	protocol       string
	samplerName    string
	samplerRatio   float64
	attributes     map[string]string
	metricInterval time.Duration
}

// resolveSettings normalizes and validates the OTel slice of the application
// configuration. Endpoint requirements only apply when telemetry is enabled.
func resolveSettings(cfg *types.Config) (*settings, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: configuration is required")
	}

	attrs, err := parseAttributes(cfg.OTelResourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("observability: invalid OTEL_RESOURCE_ATTRIBUTES: %w", err)
	}

	set := &settings{
		enabled:        cfg.OTelEnabled,
		serviceName:    strings.TrimSpace(cfg.OTelServiceName),
		endpoint:       strings.TrimSpace(cfg.OTelExporterOTLPEndpoint),
		protocol:       strings.ToLower(strings.TrimSpace(cfg.OTelExporterOTLPProtocol)),
		samplerName:    strings.ToLower(strings.TrimSpace(cfg.OTelTracesSampler)),
		samplerRatio:   cfg.OTelTracesSamplerArg,
		attributes:     attrs,
		metricInterval: defaultMetricInterval,
	}
	if set.serviceName == "" {
		set.serviceName = defaultServiceName
	}
	if set.protocol == "" {
		set.protocol = protocolHTTP
	}
	if set.samplerName == "" {
		set.samplerName = "always_on"
	}
	if cfg.OTelMetricIntervalSec > 0 {
		set.metricInterval = time.Duration(cfg.OTelMetricIntervalSec) * time.Second
	}

	if !set.enabled {
		return set, nil
	}

	if set.protocol != protocolHTTP && set.protocol != protocolGRPC {
		return nil, fmt.Errorf("observability: unsupported OTLP protocol %q", set.protocol)
	}
	if set.endpoint == "" {
		return nil, fmt.Errorf("observability: OTEL_EXPORTER_OTLP_ENDPOINT is required when telemetry is enabled")
	}
	if set.protocol == protocolHTTP {
		parsed, err := url.Parse(set.endpoint)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return nil, fmt.Errorf("observability: OTLP HTTP endpoint must be an http(s) URL with a host, got %q", set.endpoint)
		}
	}
	if set.samplerName == "traceidratio" && (set.samplerRatio <= 0 || set.samplerRatio > 1) {
		return nil, fmt.Errorf("observability: OTEL_TRACES_SAMPLER_ARG must be in (0, 1] for traceidratio")
	}

	return set, nil
}

// parseAttributes splits the standard comma-separated key=value attribute
// list (OTEL_RESOURCE_ATTRIBUTES convention).
func parseAttributes(raw string) (map[string]string, error) {
	attrs := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("malformed attribute %q", pair)
		}
		attrs[key] = strings.TrimSpace(value)
	}
	return attrs, nil
}

func (s *settings) sampler() sdktrace.Sampler {
	switch s.samplerName {
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.samplerRatio))
	default:
		return sdktrace.AlwaysSample()
	}
}

// resource merges the SDK defaults with service.name and any extra
// attributes from the environment. service.name from the attribute list
// never overrides the configured one.
func (s *settings) resource(ctx context.Context) (*resource.Resource, error) {
	kvs := []attribute.KeyValue{
		attribute.String("service.name", s.serviceName),
	}
	for key, value := range s.attributes {
		if strings.EqualFold(key, "service.name") {
			continue
		}
		kvs = append(kvs, attribute.String(key, value))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(kvs...))
}
