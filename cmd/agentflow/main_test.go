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
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripFlow = `{
  "name": "Trip Planner",
  "agents": [
    {"id": "u", "name": "User", "type": "user"},
    {"id": "a", "name": "Planner", "type": "assistant"}
  ],
  "chats": [{"source": "u", "target": "a", "order": 0, "message": {"type": "string", "content": "hi"}}]
}`

const supportFlow = `name: Support Desk
agents:
  - id: u
    name: Customer
    type: user
  - id: a
    name: Agent
    type: assistant
`

type result struct {
	code   int
	stdout string
	stderr string
}

func runCmd(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSlots(t *testing.T) {
	r := runCmd(t, "", "slots")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "is_termination_message")
	assert.Contains(t, r.stdout, "def callable_message(sender, recipient, context):")

	r = runCmd(t, "", "slots", "--json")
	require.Equal(t, exitOK, r.code, r.stderr)
	var slots []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &slots))
	assert.NotEmpty(t, slots)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "term.py")
	writeFile(t, path, "def is_termination_message(message):\n    return True\n")

	r := runCmd(t, "", "validate", "--slot", "is_termination_message", "--suffix", "planner", path)
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.True(t, strings.HasPrefix(r.stdout, "def is_termination_message_planner(\n"), r.stdout)
	assert.Contains(t, r.stdout, "return True")

	r = runCmd(t, "def is_termination_message(message):\n    return False\n",
		"validate", "--slot", "is_termination_message", "-")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "return False")
}

func TestValidate_ContractError(t *testing.T) {
	r := runCmd(t, "def is_termination_message(msg):\n    return True\n",
		"validate", "--slot", "is_termination_message", "-")
	assert.Equal(t, exitFailure, r.code)
	assert.Contains(t, r.stderr, "msg")
	assert.Empty(t, r.stdout)
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown command", []string{"bogus"}, exitUsage},
		{"unknown flag", []string{"slots", "--bogus"}, exitUsage},
		{"missing slot flag", []string{"validate", "x.py"}, exitUsage},
		{"unknown slot", []string{"validate", "--slot", "nope", "x.py"}, exitUsage},
		{"export without patterns", []string{"export"}, exitUsage},
		{"bad sink", []string{"export", "--sink", "ftp", "x.json"}, exitUsage},
		{"cos without bucket", []string{"export", "--sink", "cos", "x.json"}, exitUsage},
		{"bad protocol", []string{"slots", "--otlp-protocol", "udp"}, exitUsage},
		{"missing config", []string{"slots", "--config", "/does/not/exist.yaml"}, exitUsage},
		{"no matches", []string{"export", filepath.Join(t.TempDir(), "*.json")}, exitFailure},
		{"missing source", []string{"validate", "--slot", "is_termination_message", "/does/not/exist.py"}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCmd(t, "", tt.args...)
			assert.Equal(t, tt.code, r.code, r.stderr)
		})
	}
}

func TestExport_Local(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flows", "trip.json"), tripFlow)
	writeFile(t, filepath.Join(dir, "flows", "nested", "support.yaml"), supportFlow)
	out := filepath.Join(dir, "out")

	r := runCmd(t, "", "export", "--out", out, "--jobs", "2",
		filepath.Join(dir, "flows", "**", "*.json"),
		filepath.Join(dir, "flows", "**", "*.yaml"))
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "trip.json -> "+filepath.Join(out, "trip_planner"))
	assert.Contains(t, r.stdout, "support.yaml -> "+filepath.Join(out, "support_desk"))

	script, err := os.ReadFile(filepath.Join(out, "trip_planner", "trip_planner.py"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(script), "#!/usr/bin/env python\n"))
	assert.FileExists(t, filepath.Join(out, "support_desk", "support_desk_api_keys.py"))
}

func TestExport_Notebook(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "trip.json"), tripFlow)
	out := filepath.Join(dir, "out")
	r := runCmd(t, "", "export", "--notebook", "--out", out, filepath.Join(dir, "trip.json"))
	require.Equal(t, exitOK, r.code, r.stderr)
	script, err := os.ReadFile(filepath.Join(out, "trip_planner", "trip_planner.py"))
	require.NoError(t, err)
	assert.Contains(t, string(script), "# %%")
}

func TestExport_TarToStdout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "trip.json"), tripFlow)

	r := runCmd(t, "", "export", "--sink", "tar", "--out", "-", filepath.Join(dir, "trip.json"))
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stderr, "trip.json -> -")

	names := map[string]bool{}
	tr := tar.NewReader(strings.NewReader(r.stdout))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		names[hdr.Name] = true
	}
	assert.True(t, names["trip_planner/trip_planner.py"])
	assert.True(t, names["trip_planner/trip_planner_api_keys.py"])
}

func TestExport_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_trip.json"), tripFlow)
	writeFile(t, filepath.Join(dir, "b_broken.json"), `{"name": "broken", "agents": []}`)
	out := filepath.Join(dir, "out")

	r := runCmd(t, "", "export", "--out", out, filepath.Join(dir, "*.json"))
	assert.Equal(t, exitFailure, r.code)
	assert.Contains(t, r.stderr, "1 of 2 flows failed")
	assert.Contains(t, r.stderr, "b_broken.json")
	assert.FileExists(t, filepath.Join(out, "trip_planner", "trip_planner.py"))
}

func TestConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentflow.yaml")
	writeFile(t, path, "log:\n  level: debug\nexport:\n  out: from-file\n  jobs: 2\ncos:\n  prefix: flows\n")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-file", cfg.Export.Out)
	assert.Equal(t, sinkLocal, cfg.Export.Sink)

	env := map[string]string{"AGENTFLOW_OUT": "from-env", "AGENTFLOW_JOBS": "8"}
	require.NoError(t, applyEnv(&cfg, func(k string) string { return env[k] }))
	assert.Equal(t, "from-env", cfg.Export.Out)
	assert.Equal(t, 8, cfg.Export.Jobs)
	assert.Equal(t, "flows", cfg.COS.Prefix)

	env["AGENTFLOW_JOBS"] = "many"
	assert.Error(t, applyEnv(&cfg, func(k string) string { return env[k] }))
}

func TestConfig_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "export:\n  outt: x\n")
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	a := &app{getenv: func(string) string { return "" }, cfg: defaultConfig()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(url)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
