//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	cases := []struct {
		in       string
		expected zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{LevelFatal, zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
	}
	for _, c := range cases {
		SetLevel(c.in)
		assert.Equal(t, c.expected, zapLevel.Level(), "SetLevel(%q)", c.in)
	}
	SetLevel(LevelInfo)
}

func TestConfigureJSON(t *testing.T) {
	oldDefault, oldCtx := Default, ContextDefault
	t.Cleanup(func() {
		Default, ContextDefault = oldDefault, oldCtx
		SetLevel(LevelInfo)
	})

	var buf bytes.Buffer
	Configure(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})
	Debugf("exported %d fragments", 3)
	InfofContext(WithRequestID(context.Background(), "req-1"), "served %s", "/v1/export")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "debug", first["lvl"])
	assert.Equal(t, "exported 3 fragments", first["message"])
	assert.Equal(t, "[req-1] served /v1/export", second["message"])
}

func TestConfigureLevelFilters(t *testing.T) {
	oldDefault, oldCtx := Default, ContextDefault
	t.Cleanup(func() {
		Default, ContextDefault = oldDefault, oldCtx
		SetLevel(LevelInfo)
	})

	var buf bytes.Buffer
	Configure(Config{Level: LevelWarn, Output: &buf})
	Info("hidden")
	Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
	assert.Equal(t, "x", withRequest(context.Background(), "x"))
}
