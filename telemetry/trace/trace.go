//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package trace wires OpenTelemetry tracing for export runs. Without Start,
// every span is a no-op.
package trace

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	itelemetry "trpc.group/trpc-go/trpc-agentflow-go/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// Tracer is the tracer spans are started with. Start replaces it.
var Tracer trace.Tracer = itelemetry.Tracer

// Start installs an OTLP tracer provider and returns its cleanup function.
// The endpoint falls back to OTEL_EXPORTER_OTLP_TRACES_ENDPOINT, then
// OTEL_EXPORTER_OTLP_ENDPOINT, then the protocol default.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	o := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.endpoint == "" && o.endpointURL == "" {
		o.endpoint = tracesEndpoint(o.protocol)
	}

	res, err := buildResource(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	exporter, err := newExporter(ctx, o)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	Tracer = tp.Tracer(itelemetry.InstrumentName)
	itelemetry.Tracer = Tracer

	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

func newExporter(ctx context.Context, o *options) (sdktrace.SpanExporter, error) {
	switch o.protocol {
	case itelemetry.ProtocolHTTP:
		httpOpts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
		if o.endpointURL != "" {
			u, err := parseEndpointURL(o.endpointURL)
			if err != nil {
				return nil, err
			}
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(u.Host))
			if u.Path != "" && u.Path != "/" {
				httpOpts = append(httpOpts, otlptracehttp.WithURLPath(u.Path))
			}
		} else {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(o.endpoint))
		}
		if len(o.headers) > 0 {
			httpOpts = append(httpOpts, otlptracehttp.WithHeaders(o.headers))
		}
		exp, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP trace exporter: %w", err)
		}
		return exp, nil
	default:
		endpoint := o.endpoint
		if o.endpointURL != "" {
			u, err := parseEndpointURL(o.endpointURL)
			if err != nil {
				return nil, err
			}
			endpoint = u.Host
		}
		conn, err := itelemetry.NewGRPCConn(endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace connection: %w", err)
		}
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithGRPCConn(conn)}
		if len(o.headers) > 0 {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(o.headers))
		}
		exp, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC trace exporter: %w", err)
		}
		return exp, nil
	}
}

// parseEndpointURL accepts full URLs and bare host[:port][/path] values.
func parseEndpointURL(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint url %q: missing host", raw)
	}
	return u, nil
}

func tracesEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	switch protocol {
	case itelemetry.ProtocolHTTP:
		return "localhost:4318"
	default:
		return "localhost:4317"
	}
}

// Option is a function that configures tracing.
type Option func(*options)

type options struct {
	endpoint           string
	endpointURL        string
	headers            map[string]string
	protocol           string
	serviceName        string
	serviceVersion     string
	serviceNamespace   string
	resourceAttributes []attribute.KeyValue
}

// WithEndpoint sets the collector host:port.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithEndpointURL sets a full collector URL. It takes precedence over
// WithEndpoint.
func WithEndpointURL(endpointURL string) Option {
	return func(o *options) {
		o.endpointURL = endpointURL
	}
}

// WithHeaders sets headers sent with every export.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithProtocol selects "grpc" (default) or "http".
func WithProtocol(protocol string) Option {
	return func(o *options) {
		o.protocol = protocol
	}
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(o *options) {
		o.serviceName = name
	}
}

// WithServiceNamespace overrides the service.namespace resource attribute.
func WithServiceNamespace(ns string) Option {
	return func(o *options) {
		o.serviceNamespace = ns
	}
}

// WithServiceVersion overrides the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(o *options) {
		o.serviceVersion = version
	}
}

// WithResourceAttributes appends custom resource attributes.
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return func(o *options) {
		o.resourceAttributes = append(o.resourceAttributes, attrs...)
	}
}

func buildResource(ctx context.Context, o *options) (*resource.Resource, error) {
	resourceOpts := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNamespace(o.serviceNamespace),
			semconv.ServiceName(o.serviceName),
			semconv.ServiceVersion(o.serviceVersion),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	}
	if len(o.resourceAttributes) > 0 {
		resourceOpts = append(resourceOpts, resource.WithAttributes(o.resourceAttributes...))
	}
	return resource.New(ctx, resourceOpts...)
}
