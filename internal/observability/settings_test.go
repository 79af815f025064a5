package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyora/zara/internal/types"
)

func TestResolveSettingsDefaults(t *testing.T) {
	set, err := resolveSettings(&types.Config{})
	require.NoError(t, err)

	assert.False(t, set.enabled)
	assert.Equal(t, "zara", set.serviceName)
	assert.Equal(t, protocolHTTP, set.protocol)
	assert.Equal(t, "always_on", set.samplerName)
	assert.Equal(t, 60*time.Second, set.metricInterval)
}

func TestResolveSettingsDisabledSkipsEndpointChecks(t *testing.T) {
	// No endpoint and a bogus protocol: both are irrelevant while disabled.
	set, err := resolveSettings(&types.Config{
		OTelEnabled:              false,
		OTelExporterOTLPProtocol: "carrier-pigeon",
	})
	require.NoError(t, err)
	assert.False(t, set.enabled)
}

func TestResolveSettingsEnabledValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  types.Config
	}{
		{"missing endpoint", types.Config{OTelEnabled: true}},
		{"unsupported protocol", types.Config{
			OTelEnabled:              true,
			OTelExporterOTLPEndpoint: "http://collector:4318",
			OTelExporterOTLPProtocol: "carrier-pigeon",
		}},
		{"http endpoint without scheme", types.Config{
			OTelEnabled:              true,
			OTelExporterOTLPEndpoint: "collector:4318",
			OTelExporterOTLPProtocol: "http/protobuf",
		}},
		{"ratio sampler out of range", types.Config{
			OTelEnabled:              true,
			OTelExporterOTLPEndpoint: "http://collector:4318",
			OTelTracesSampler:        "traceidratio",
			OTelTracesSamplerArg:     1.5,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolveSettings(&tc.cfg)
			assert.Error(t, err)
		})
	}
}

func TestResolveSettingsMetricInterval(t *testing.T) {
	set, err := resolveSettings(&types.Config{OTelMetricIntervalSec: 15})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, set.metricInterval)
}

func TestParseAttributes(t *testing.T) {
	attrs, err := parseAttributes("env=prod, team=helpdesk ,,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"env": "prod", "team": "helpdesk"}, attrs)

	_, err = parseAttributes("no-equals-sign")
	assert.Error(t, err)
}

func TestHTTPSignalURL(t *testing.T) {
	cases := []struct {
		endpoint     string
		want         string
		wantInsecure bool
	}{
		{"https://collector:4318", "https://collector:4318/v1/traces", false},
		{"http://localhost:4318", "http://localhost:4318/v1/traces", true},
		{"https://example.com/otlp", "https://example.com/otlp/v1/traces", false},
		{"https://example.com/otlp/", "https://example.com/otlp/v1/traces", false},
		{"https://example.com/otlp/v1/traces", "https://example.com/otlp/v1/traces", false},
		{"https://example.com/otlp?token=abc", "https://example.com/otlp/v1/traces?token=abc", false},
	}

	for _, tc := range cases {
		got, insecure, err := httpSignalURL(tc.endpoint, "/v1/traces")
		require.NoError(t, err, tc.endpoint)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.wantInsecure, insecure, tc.endpoint)
	}
}

func TestGRPCTarget(t *testing.T) {
	cases := []struct {
		endpoint     string
		want         string
		wantInsecure bool
		wantErr      bool
	}{
		{endpoint: "collector:4317", want: "collector:4317", wantInsecure: true},
		{endpoint: "grpc://collector:4317", want: "collector:4317", wantInsecure: true},
		{endpoint: "https://collector:4317", want: "collector:4317", wantInsecure: false},
		{endpoint: "grpcs://collector:4317", want: "collector:4317", wantInsecure: false},
		{endpoint: "collector", wantErr: true},
		{endpoint: "ftp://collector:4317", wantErr: true},
	}

	for _, tc := range cases {
		got, insecure, err := grpcTarget(tc.endpoint)
		if tc.wantErr {
			assert.Error(t, err, tc.endpoint)
			continue
		}
		require.NoError(t, err, tc.endpoint)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.wantInsecure, insecure, tc.endpoint)
	}
}
