package observability

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	otlpmetricgrpc "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otlpmetrichttp "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otlptracegrpc "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newTraceExporter(ctx context.Context, set *settings) (sdktrace.SpanExporter, error) {
	if set.protocol == protocolGRPC {
		target, insecure, err := grpcTarget(set.endpoint)
		if err != nil {
			return nil, err
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	}

	endpoint, insecure, err := httpSignalURL(set.endpoint, "/v1/traces")
	if err != nil {
		return nil, err
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func newMetricExporter(ctx context.Context, set *settings) (sdkmetric.Exporter, error) {
	if set.protocol == protocolGRPC {
		target, insecure, err := grpcTarget(set.endpoint)
		if err != nil {
			return nil, err
		}
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(target)}
		if insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}

	endpoint, insecure, err := httpSignalURL(set.endpoint, "/v1/metrics")
	if err != nil {
		return nil, err
	}
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(endpoint)}
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

// httpSignalURL appends the per-signal OTLP path to a collector base URL
// unless it is already present, keeping any query string. The insecure flag
// reflects a plain http scheme.
func httpSignalURL(endpoint, signalPath string) (string, bool, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("observability: invalid OTLP HTTP endpoint: %w", err)
	}
	base := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(base, signalPath) {
		u.Path = base + signalPath
	} else {
		u.Path = base
	}
	return u.String(), u.Scheme == "http", nil
}

// grpcTarget reduces the configured endpoint to the host:port the gRPC
// exporters expect. A bare host:port, or an http/grpc scheme, means an
// insecure channel.
func grpcTarget(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		if !strings.Contains(endpoint, ":") {
			return "", false, fmt.Errorf("observability: OTLP gRPC endpoint should be host:port, got %q", endpoint)
		}
		return endpoint, true, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", false, fmt.Errorf("observability: invalid OTLP gRPC endpoint %q", endpoint)
	}
	switch u.Scheme {
	case "http", "grpc":
		return u.Host, true, nil
	case "https", "grpcs":
		return u.Host, false, nil
	default:
		return "", false, fmt.Errorf("observability: unsupported OTLP gRPC scheme %q", u.Scheme)
	}
}
