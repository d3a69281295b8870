//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTar(t *testing.T, r io.Reader) map[string]string {
	t.Helper()
	entries := map[string]string{}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(data)
	}
	return entries
}

func TestStreamWriter(t *testing.T) {
	var buf bytes.Buffer
	loc, err := NewStreamWriter(&buf).Write(context.Background(), "trip", map[string][]byte{
		"trip.py":          []byte("print(1)\n"),
		"trip_api_keys.py": []byte("import os\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "-", loc)

	entries := readTar(t, &buf)
	assert.Equal(t, "print(1)\n", entries["trip/trip.py"])
	assert.Equal(t, "import os\n", entries["trip/trip_api_keys.py"])
}

func TestFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	loc, err := NewWriter(dir).Write(context.Background(), "trip", map[string][]byte{"trip.py": []byte("x = 1\n")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "trip.tar"), loc)

	f, err := os.Open(loc)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "x = 1\n", readTar(t, f)["trip/trip.py"])
}

func TestWriter_BadName(t *testing.T) {
	_, err := NewStreamWriter(io.Discard).Write(context.Background(), "../x", nil)
	assert.Error(t, err)
}
