//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func TestTracesEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "custom-trace:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "generic:4317")
	assert.Equal(t, "custom-trace:4317", tracesEndpoint("grpc"))

	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	assert.Equal(t, "generic:4317", tracesEndpoint("grpc"))

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	assert.Equal(t, "localhost:4317", tracesEndpoint("grpc"))
	assert.Equal(t, "localhost:4318", tracesEndpoint("http"))
}

func TestParseEndpointURL(t *testing.T) {
	u, err := parseEndpointURL("collector:4318/otlp/v1/traces")
	require.NoError(t, err)
	assert.Equal(t, "collector:4318", u.Host)
	assert.Equal(t, "/otlp/v1/traces", u.Path)

	u, err = parseEndpointURL("https://otel.example.com")
	require.NoError(t, err)
	assert.Equal(t, "otel.example.com", u.Host)

	_, err = parseEndpointURL("http:///bad")
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{"grpc", []Option{WithEndpoint("localhost:4317")}},
		{"grpc url", []Option{WithEndpointURL("localhost:9999"), WithHeaders(map[string]string{"k": "v"})}},
		{"http", []Option{WithProtocol("http"), WithEndpoint("localhost:4318")}},
		{"http url", []Option{WithProtocol("http"), WithEndpointURL("http://localhost:4318/custom/path")}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clean, err := Start(ctx, tc.opts...)
			require.NoError(t, err)
			require.NotNil(t, clean)
			assert.NotNil(t, Tracer)
			_ = clean()
		})
	}
}

func TestStartInvalidURL(t *testing.T) {
	_, err := Start(context.Background(), WithProtocol("http"), WithEndpointURL("http:///bad"))
	assert.Error(t, err)
}

func TestBuildResource(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "team=platform")
	o := &options{}
	WithServiceName("agentflow-test")(o)
	WithServiceNamespace("ns")(o)
	WithServiceVersion("1.2.3")(o)
	WithResourceAttributes(attribute.String("team", "ml"), attribute.String("custom", "value"))(o)

	res, err := buildResource(context.Background(), o)
	require.NoError(t, err)
	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "agentflow-test", attrs[string(semconv.ServiceNameKey)])
	assert.Equal(t, "1.2.3", attrs[string(semconv.ServiceVersionKey)])
	assert.Equal(t, "ml", attrs["team"])
	assert.Equal(t, "value", attrs["custom"])
}
