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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer is replaced by telemetry/trace.Start. Until then spans are no-ops.
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer(InstrumentName)

// TraceError marks span failed. kind is a short classification such as
// "syntax" or "arity"; empty leaves it unset.
func TraceError(span trace.Span, kind string, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	attrs := []attribute.KeyValue{attribute.String(KeyErrorMessage, err.Error())}
	if kind != "" {
		attrs = append(attrs, attribute.String(KeyErrorKind, kind))
	}
	span.SetAttributes(attrs...)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
