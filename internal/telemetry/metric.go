//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric names.
const (
	MetricExports            = "agentflow.exports"
	MetricValidationFailures = "agentflow.validation.failures"
	MetricFragments          = "agentflow.fragments"
)

var (
	MeterProvider metric.MeterProvider = noop.NewMeterProvider()
	Meter         metric.Meter         = MeterProvider.Meter(MeterName)

	ExportsCounter            metric.Int64Counter = noop.Int64Counter{}
	ValidationFailuresCounter metric.Int64Counter = noop.Int64Counter{}
	FragmentsCounter          metric.Int64Counter = noop.Int64Counter{}
)

// IncExport counts one finished export run.
func IncExport(ctx context.Context, flowName string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	ExportsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(KeyFlowName, flowName),
		attribute.String(KeyOutcome, outcome),
	))
}

// IncValidationFailure counts one rejected callable.
func IncValidationFailure(ctx context.Context, slot, kind string) {
	ValidationFailuresCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(KeySlot, slot),
		attribute.String(KeyErrorKind, kind),
	))
}

// AddFragments counts the fragments an entity contributed.
func AddFragments(ctx context.Context, entityKind string, n int) {
	if n <= 0 {
		return
	}
	FragmentsCounter.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String(KeyEntityKind, entityKind),
	))
}
