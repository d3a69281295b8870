//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package codegen

import (
	"fmt"
	"strings"
)

const (
	indentUnit = "    "
	// MaxBlankLines is the longest run of blank lines a document may hold.
	MaxBlankLines = 2
)

// Builder accumulates lines of Python while tracking indentation and the
// number of trailing blank lines. It never emits leading blank lines or more
// than MaxBlankLines consecutive blank lines.
type Builder struct {
	lines  []string
	indent int
	blanks int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Indent increases the indentation level of subsequent lines.
func (b *Builder) Indent() *Builder {
	b.indent++
	return b
}

// Dedent decreases the indentation level of subsequent lines.
func (b *Builder) Dedent() *Builder {
	if b.indent > 0 {
		b.indent--
	}
	return b
}

// Line appends one line at the current indentation. An empty or
// whitespace-only line counts as blank.
func (b *Builder) Line(s string) *Builder {
	if strings.TrimSpace(s) == "" {
		return b.blank()
	}
	b.lines = append(b.lines, strings.Repeat(indentUnit, b.indent)+s)
	b.blanks = 0
	return b
}

// Linef appends a formatted line.
func (b *Builder) Linef(format string, args ...any) *Builder {
	return b.Line(fmt.Sprintf(format, args...))
}

// Lines appends multi-line text, indenting every non-blank line. A single
// trailing newline is ignored.
func (b *Builder) Lines(text string) *Builder {
	text = strings.TrimSuffix(text, "\n")
	for _, l := range strings.Split(text, "\n") {
		b.Line(l)
	}
	return b
}

// Blank makes the document end with exactly n blank lines, capped at
// MaxBlankLines. It does nothing on an empty builder.
func (b *Builder) Blank(n int) *Builder {
	if n > MaxBlankLines {
		n = MaxBlankLines
	}
	if n < 0 {
		n = 0
	}
	for b.blanks > n {
		b.lines = b.lines[:len(b.lines)-1]
		b.blanks--
	}
	for b.blanks < n && len(b.lines) > 0 {
		b.blank()
	}
	return b
}

func (b *Builder) blank() *Builder {
	if len(b.lines) == 0 || b.blanks >= MaxBlankLines {
		return b
	}
	b.lines = append(b.lines, "")
	b.blanks++
	return b
}

// Empty reports whether nothing has been written.
func (b *Builder) Empty() bool {
	return len(b.lines) == 0
}

// String returns the document without trailing blank lines, ending in a
// single newline.
func (b *Builder) String() string {
	lines := b.lines[:len(b.lines)-b.blanks]
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// NormalizeBlankLines collapses every run of three or more blank lines to
// exactly two, turns whitespace-only lines into empty ones and drops leading
// and trailing blank lines.
func NormalizeBlankLines(text string) string {
	b := NewBuilder()
	b.Lines(text)
	out := b.String()
	if out == "" || strings.HasSuffix(text, "\n") {
		return out
	}
	return strings.TrimSuffix(out, "\n")
}
