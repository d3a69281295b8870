//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-agentflow-go/log"
	"trpc.group/trpc-go/trpc-agentflow-go/telemetry/metric"
	atrace "trpc.group/trpc-go/trpc-agentflow-go/telemetry/trace"
)

// app carries the resolved configuration and process streams shared by
// all commands.
type app struct {
	getenv func(string) string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath     string
	logLevel       string
	traceEndpoint  string
	metricEndpoint string
	otlpProtocol   string

	cfg      config
	cleanups []func() error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "agentflow",
		Short: "Export agent flows as runnable AG2 programs",
		Long: `agentflow turns flow documents (JSON or YAML) into self-contained
Python programs for the AG2 multi-agent framework.

Commands:
  agentflow export flows/**/*.json   Export flows to a sink
  agentflow validate --slot NAME F   Check one callable against its slot
  agentflow slots                    List the callable slots
  agentflow serve                    Serve the HTTP API`,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file (default $AGENTFLOW_CONFIG)")
	flags.StringVar(&a.logLevel, "log-level", log.LevelInfo, "Log level: debug, info, warn, error")
	flags.StringVar(&a.traceEndpoint, "trace-endpoint", "", "OTLP trace endpoint, enables tracing")
	flags.StringVar(&a.metricEndpoint, "metric-endpoint", "", "OTLP metric endpoint, enables metrics")
	flags.StringVar(&a.otlpProtocol, "otlp-protocol", "grpc", "OTLP protocol: grpc or http")

	root.AddCommand(
		newExportCmd(a),
		newValidateCmd(a),
		newSlotsCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup resolves the configuration in file, environment, flag order and
// starts telemetry.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = a.getenv("AGENTFLOW_CONFIG")
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return &usageError{err: err}
	}
	if err := applyEnv(&cfg, a.getenv); err != nil {
		return &usageError{err: err}
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("trace-endpoint") {
		cfg.Telemetry.TraceEndpoint = a.traceEndpoint
	}
	if flags.Changed("metric-endpoint") {
		cfg.Telemetry.MetricEndpoint = a.metricEndpoint
	}
	if flags.Changed("otlp-protocol") {
		cfg.Telemetry.Protocol = a.otlpProtocol
	}
	if err := cfg.validateTelemetry(); err != nil {
		return &usageError{err: err}
	}
	a.cfg = cfg

	logCfg := cfg.Log
	logCfg.Output = a.stderr
	log.Configure(logCfg)
	return a.startTelemetry(cmd.Context())
}

func (a *app) startTelemetry(ctx context.Context) error {
	t := a.cfg.Telemetry
	if t.TraceEndpoint != "" {
		clean, err := atrace.Start(ctx,
			atrace.WithEndpoint(t.TraceEndpoint),
			atrace.WithProtocol(t.Protocol),
		)
		if err != nil {
			return err
		}
		a.cleanups = append(a.cleanups, clean)
		log.Debugf("tracing to %s over %s", t.TraceEndpoint, t.Protocol)
	}
	if t.MetricEndpoint != "" {
		mp, err := metric.NewMeterProvider(ctx,
			metric.WithEndpoint(t.MetricEndpoint),
			metric.WithProtocol(t.Protocol),
		)
		if err != nil {
			return err
		}
		if err := metric.InitMeterProvider(mp); err != nil {
			return err
		}
		a.cleanups = append(a.cleanups, func() error { return mp.Shutdown(context.Background()) })
		log.Debugf("exporting metrics to %s over %s", t.MetricEndpoint, t.Protocol)
	}
	return nil
}

// shutdown flushes telemetry in reverse start order.
func (a *app) shutdown() {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		errs = append(errs, a.cleanups[i]())
	}
	a.cleanups = nil
	if err := errors.Join(errs...); err != nil {
		log.Warnf("telemetry shutdown: %v", err)
	}
}

// usageArgs turns cobra's argument validation failures into usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
