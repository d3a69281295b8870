//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package archive packs exported flows into tar streams.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	archive "github.com/moby/go-archive"

	"trpc.group/trpc-go/trpc-agentflow-go/artifact"
	"trpc.group/trpc-go/trpc-agentflow-go/artifact/local"
)

var _ artifact.Writer = (*Writer)(nil)

// Writer writes one tar per flow. Entries are rooted at the flow name.
type Writer struct {
	dir string
	out io.Writer
}

// NewWriter writes {name}.tar files into dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// NewStreamWriter writes the tar to out. The returned location is "-".
func NewStreamWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write implements artifact.Writer.
func (w *Writer) Write(ctx context.Context, name string, files map[string][]byte) (string, error) {
	if err := artifact.CheckName(name); err != nil {
		return "", err
	}
	staging, err := os.MkdirTemp("", "agentflow-")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if _, err := local.NewWriter(staging).Write(ctx, name, files); err != nil {
		return "", err
	}
	rd, err := archive.TarWithOptions(staging, &archive.TarOptions{
		IncludeFiles: []string{name},
	})
	if err != nil {
		return "", fmt.Errorf("tar %s: %w", name, err)
	}
	defer rd.Close()

	if w.out != nil {
		if _, err := io.Copy(w.out, rd); err != nil {
			return "", fmt.Errorf("write tar %s: %w", name, err)
		}
		return "-", nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", w.dir, err)
	}
	path := filepath.Join(w.dir, name+".tar")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, rd); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
