//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package exporter

import (
	"strconv"
	"strings"

	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
)

// arg is one keyword argument or dict entry. value is Python source and may
// span several lines.
type arg struct {
	key   string
	value string
}

type args []arg

func (a *args) add(key, value string) {
	*a = append(*a, arg{key: key, value: value})
}

func (a *args) addStr(key, value string) {
	a.add(key, pyStr(value))
}

func (a *args) addStrIf(key, value string) {
	if value != "" {
		a.addStr(key, value)
	}
}

func (a *args) addIntIf(key string, value int) {
	if value != 0 {
		a.add(key, strconv.Itoa(value))
	}
}

// pyStr renders s as a double-quoted Python string. Go escapes are a subset
// of Python's.
func pyStr(s string) string {
	return strconv.Quote(s)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func pyStrList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = pyStr(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// pyBlockList renders names one per line:
//
//	[
//	    a,
//	    b,
//	]
func pyBlockList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b := codegen.NewBuilder()
	b.Line("[")
	b.Indent()
	for _, it := range items {
		b.Lines(it + ",")
	}
	b.Dedent()
	b.Line("]")
	return strings.TrimSuffix(b.String(), "\n")
}

// pyDict renders entries with quoted keys, one per line.
func pyDict(entries args) string {
	if len(entries) == 0 {
		return "{}"
	}
	b := codegen.NewBuilder()
	b.Line("{")
	b.Indent()
	for _, e := range entries {
		b.Lines(pyStr(e.key) + ": " + e.value + ",")
	}
	b.Dedent()
	b.Line("}")
	return strings.TrimSuffix(b.String(), "\n")
}

// pyCall renders prefix(key=value, ...) with one argument per line. Args
// with an empty key are positional.
func pyCall(prefix string, callArgs args) string {
	if len(callArgs) == 0 {
		return prefix + "()"
	}
	b := codegen.NewBuilder()
	b.Line(prefix + "(")
	b.Indent()
	for _, a := range callArgs {
		if a.key == "" {
			b.Lines(a.value + ",")
			continue
		}
		b.Lines(a.key + "=" + a.value + ",")
	}
	b.Dedent()
	b.Line(")")
	return strings.TrimSuffix(b.String(), "\n")
}

// joinBlocks separates top-level blocks with two blank lines.
func joinBlocks(blocks []string) string {
	b := codegen.NewBuilder()
	for _, block := range blocks {
		b.Lines(block)
		b.Blank(2)
	}
	return strings.TrimRight(b.String(), "\n")
}
