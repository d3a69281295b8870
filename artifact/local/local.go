//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package local writes exported flows to a directory on disk.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"trpc.group/trpc-go/trpc-agentflow-go/artifact"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

var _ artifact.Writer = (*Writer)(nil)

// Writer places each flow in root/<name>/.
type Writer struct {
	root string
	// flat writes files directly into root.
	flat bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithFlat writes files into the root directory itself instead of a
// per-flow subdirectory.
func WithFlat(flat bool) Option {
	return func(w *Writer) {
		w.flat = flat
	}
}

// NewWriter creates a writer rooted at root.
func NewWriter(root string, opts ...Option) *Writer {
	w := &Writer{root: root}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write implements artifact.Writer.
func (w *Writer) Write(ctx context.Context, name string, files map[string][]byte) (string, error) {
	if err := artifact.CheckName(name); err != nil {
		return "", err
	}
	dir := w.root
	if !w.flat {
		dir = filepath.Join(w.root, name)
	}
	for _, file := range artifact.FileNames(files) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := artifact.CheckName(file); err != nil {
			return "", err
		}
		path := filepath.Join(dir, file)
		if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
			return "", fmt.Errorf("create directory for %s: %w", file, err)
		}
		if err := os.WriteFile(path, files[file], fileMode); err != nil {
			return "", fmt.Errorf("write %s: %w", file, err)
		}
	}
	return dir, nil
}
