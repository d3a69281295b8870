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
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	itelemetry "trpc.group/trpc-go/trpc-agentflow-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-agentflow-go/log"
)

// Sinks accepted by --sink.
const (
	sinkLocal = "local"
	sinkCOS   = "cos"
	sinkTar   = "tar"
)

// config is the YAML file given with --config. Environment variables
// override it and flags override both.
type config struct {
	Log       log.Config      `yaml:"log"`
	Export    exportConfig    `yaml:"export"`
	COS       cosConfig       `yaml:"cos"`
	Server    serverConfig    `yaml:"server"`
	Telemetry telemetryConfig `yaml:"telemetry"`
}

type exportConfig struct {
	Out             string `yaml:"out"`
	Sink            string `yaml:"sink"`
	Jobs            int    `yaml:"jobs"`
	PoolSize        int    `yaml:"poolSize"`
	Notebook        bool   `yaml:"notebook"`
	Strict          bool   `yaml:"strict"`
	UniqueCallables bool   `yaml:"uniqueCallables"`
	FailFast        bool   `yaml:"failFast"`
}

type cosConfig struct {
	BucketURL string `yaml:"bucketURL"`
	Prefix    string `yaml:"prefix"`
}

type serverConfig struct {
	Addr           string   `yaml:"addr"`
	MaxBodyBytes   int64    `yaml:"maxBodyBytes"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type telemetryConfig struct {
	TraceEndpoint  string `yaml:"traceEndpoint"`
	MetricEndpoint string `yaml:"metricEndpoint"`
	Protocol       string `yaml:"protocol"`
}

func defaultConfig() config {
	return config{
		Log:    log.Config{Level: log.LevelInfo, Format: log.FormatConsole},
		Export: exportConfig{Out: "out", Sink: sinkLocal, Jobs: 4},
		Server: serverConfig{Addr: ":8080"},
		Telemetry: telemetryConfig{
			Protocol: itelemetry.ProtocolGRPC,
		},
	}
}

// loadConfig reads path over the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overrides cfg from AGENTFLOW_* variables.
func applyEnv(cfg *config, getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setString("AGENTFLOW_LOG_LEVEL", &cfg.Log.Level)
	setString("AGENTFLOW_LOG_FORMAT", &cfg.Log.Format)
	setString("AGENTFLOW_OUT", &cfg.Export.Out)
	setString("AGENTFLOW_SINK", &cfg.Export.Sink)
	setString("AGENTFLOW_COS_BUCKET_URL", &cfg.COS.BucketURL)
	setString("AGENTFLOW_COS_PREFIX", &cfg.COS.Prefix)
	setString("AGENTFLOW_ADDR", &cfg.Server.Addr)
	if v := getenv("AGENTFLOW_JOBS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AGENTFLOW_JOBS: %w", err)
		}
		cfg.Export.Jobs = n
	}
	return nil
}

func (c *config) validateExport() error {
	switch c.Export.Sink {
	case sinkLocal, sinkTar:
	case sinkCOS:
		if c.COS.BucketURL == "" {
			return fmt.Errorf("cos sink needs a bucket url")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Export.Sink)
	}
	if c.Export.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1")
	}
	return nil
}

func (c *config) validateTelemetry() error {
	switch c.Telemetry.Protocol {
	case itelemetry.ProtocolGRPC, itelemetry.ProtocolHTTP:
		return nil
	default:
		return fmt.Errorf("unknown otlp protocol %q", c.Telemetry.Protocol)
	}
}
