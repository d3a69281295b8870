//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the instruments and span helpers shared by the
// exporter, the CLI and the HTTP server. The public telemetry/trace and
// telemetry/metric packages install real providers into it.
package telemetry

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// grpcDial is a package-level variable to allow test injection of a custom dialer.
var grpcDial = grpc.Dial

// telemetry service constants.
const (
	ServiceName      = "agentflow"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-agentflow-go"
	InstrumentName   = "trpc.agentflow.go"
	MeterName        = "trpc.agentflow.go/exporter"

	SpanNameExport   = "agentflow.export"
	SpanNameEntity   = "agentflow.export_entity"
	SpanNameValidate = "agentflow.validate"
	SpanNameAssemble = "agentflow.assemble"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// Attribute keys.
const (
	KeyFlowName      = "agentflow.flow.name"
	KeyFlowID        = "agentflow.flow.id"
	KeyEntity        = "agentflow.entity"
	KeyEntityKind    = "agentflow.entity.kind"
	KeySlot          = "agentflow.callable.slot"
	KeyFragmentCount = "agentflow.fragments"
	KeyOutcome       = "agentflow.outcome"
	KeyErrorKind     = "error.kind"
	KeyErrorMessage  = "error.message"
)

// Outcome values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// NewGRPCConn creates a new gRPC connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	// Note the use of insecure transport here. TLS is recommended in production.
	conn, err := grpcDial(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
