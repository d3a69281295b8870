//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package artifact defines the sinks exported programs are written to.
package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
)

// Writer stores the files of one exported flow under name.
type Writer interface {
	// Write stores files and returns where they ended up.
	Write(ctx context.Context, name string, files map[string][]byte) (location string, err error)
}

// FileNames returns the keys of files in sorted order.
func FileNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CheckName rejects names that would escape the sink's root.
func CheckName(name string) error {
	if name == "" || !filepath.IsLocal(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}
