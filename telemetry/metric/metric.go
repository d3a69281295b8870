//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package metric provides the export counters and an OTLP meter provider.
package metric

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	itelemetry "trpc.group/trpc-go/trpc-agentflow-go/internal/telemetry"
)

// InitMeterProvider creates the agentflow counters on mp and makes them
// the ones the exporter records to.
func InitMeterProvider(mp metric.MeterProvider) error {
	if mp == nil {
		return fmt.Errorf("meter provider is nil")
	}
	meter := mp.Meter(itelemetry.MeterName)

	exports, err := meter.Int64Counter(
		itelemetry.MetricExports,
		metric.WithDescription("Number of flow export runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create metric %s: %w", itelemetry.MetricExports, err)
	}
	failures, err := meter.Int64Counter(
		itelemetry.MetricValidationFailures,
		metric.WithDescription("Number of callables rejected by the validator"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create metric %s: %w", itelemetry.MetricValidationFailures, err)
	}
	fragments, err := meter.Int64Counter(
		itelemetry.MetricFragments,
		metric.WithDescription("Number of code fragments produced by entity exporters"),
		metric.WithUnit("{fragment}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create metric %s: %w", itelemetry.MetricFragments, err)
	}

	itelemetry.MeterProvider = mp
	itelemetry.Meter = meter
	itelemetry.ExportsCounter = exports
	itelemetry.ValidationFailuresCounter = failures
	itelemetry.FragmentsCounter = fragments
	return nil
}

// GetMeterProvider returns the meter provider.
func GetMeterProvider() metric.MeterProvider {
	return itelemetry.MeterProvider
}

// NewMeterProvider creates a new meter provider with optional configuration.
// The endpoint falls back to OTEL_EXPORTER_OTLP_METRICS_ENDPOINT, then
// OTEL_EXPORTER_OTLP_ENDPOINT.
func NewMeterProvider(ctx context.Context, opts ...Option) (*sdkmetric.MeterProvider, error) {
	o := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.endpoint == "" {
		o.endpoint = metricsEndpoint(o.protocol)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNamespace(o.serviceNamespace),
			semconv.ServiceName(o.serviceName),
			semconv.ServiceVersion(o.serviceVersion),
		),
		resource.WithFromEnv(),
		resource.WithAttributes(o.resourceAttributes...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch o.protocol {
	case itelemetry.ProtocolHTTP:
		exporter, err = otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(o.endpoint),
			otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics exporter: %w", err)
		}
	default:
		conn, err := itelemetry.NewGRPCConn(o.endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics connection: %w", err)
		}
		exporter, err = otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

func metricsEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); endpoint != "" {
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

// Option is a function that configures meter options.
type Option func(*options)

type options struct {
	endpoint           string
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

// WithResourceAttributes appends custom resource attributes.
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return func(o *options) {
		o.resourceAttributes = append(o.resourceAttributes, attrs...)
	}
}
