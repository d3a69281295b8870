//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"trpc.group/trpc-go/trpc-agentflow-go/log"
)

func TestLog(t *testing.T) {
	original := log.Default
	defer func() { log.Default = original }()

	log.Default = &noopLogger{}
	log.Debug("test")
	log.Debugf("test")
	log.Info("test")
	log.Infof("test")
	log.Warn("test")
	log.Warnf("test")
	log.Error("test")
	log.Errorf("test")
	log.Fatal("test")
	log.Fatalf("test")
}

func TestContextHelpersUseContextDefault(t *testing.T) {
	ctx := log.WithRequestID(context.Background(), "r1")

	original := log.ContextDefault
	defer func() {
		log.ContextDefault = original
	}()

	logger := &countLogger{}
	log.ContextDefault = logger

	log.InfofContext(ctx, "test %d", 1)
	log.WarnfContext(ctx, "test")
	log.ErrorfContext(ctx, "test")
	log.DebugfContext(ctx, "test")

	assert.Equal(t, 4, logger.calls)
	assert.Equal(t, "[r1] test", logger.lastFormat)
}

type noopLogger struct{}

func (*noopLogger) Debug(args ...any)                 {}
func (*noopLogger) Debugf(format string, args ...any) {}
func (*noopLogger) Info(args ...any)                  {}
func (*noopLogger) Infof(format string, args ...any)  {}
func (*noopLogger) Warn(args ...any)                  {}
func (*noopLogger) Warnf(format string, args ...any)  {}
func (*noopLogger) Error(args ...any)                 {}
func (*noopLogger) Errorf(format string, args ...any) {}
func (*noopLogger) Fatal(args ...any)                 {}
func (*noopLogger) Fatalf(format string, args ...any) {}

type countLogger struct {
	calls      int
	lastFormat string
}

func (c *countLogger) record(format string) {
	c.calls++
	c.lastFormat = format
}

func (*countLogger) Debug(args ...any)                   {}
func (c *countLogger) Debugf(format string, args ...any) { c.record(format) }
func (*countLogger) Info(args ...any)                    {}
func (c *countLogger) Infof(format string, args ...any)  { c.record(format) }
func (*countLogger) Warn(args ...any)                    {}
func (c *countLogger) Warnf(format string, args ...any)  { c.record(format) }
func (*countLogger) Error(args ...any)                   {}
func (c *countLogger) Errorf(format string, args ...any) { c.record(format) }
func (*countLogger) Fatal(args ...any)                   {}
func (c *countLogger) Fatalf(format string, args ...any) { c.record(format) }
