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
	"slices"
	"sort"
	"strings"
)

// UmbrellaRule folds a family of import lines into one umbrella import.
// Every pooled line equal to one of Subsumes (ignoring a trailing comment) is
// dropped, and Line is emitted once at the head of its bucket instead.
type UmbrellaRule struct {
	Line     string
	Position ImportPosition
	Subsumes []string
}

func (r UmbrellaRule) matches(line string) bool {
	code := line
	if i := strings.IndexByte(code, '#'); i >= 0 {
		code = code[:i]
	}
	return slices.Contains(r.Subsumes, strings.TrimSpace(code))
}

// DefaultUmbrellaRules is the policy table for AG2 flows: any plain
// "import autogen" collapses into a single third-party line.
func DefaultUmbrellaRules() []UmbrellaRule {
	return []UmbrellaRule{
		{
			Line:     "import autogen",
			Position: ThirdParty,
			Subsumes: []string{"import autogen"},
		},
	}
}

// ImportBlock consolidates imports into the text of the import section:
// umbrella rules applied, each bucket sorted and deduplicated, buckets in
// Builtin, ThirdParty, Local order separated by one blank line. Lines that
// appear in more than one bucket are kept in the earliest bucket only.
func ImportBlock(imports []Import, rules []UmbrellaRule) string {
	var buckets [Local + 1][]string
	var heads [Local + 1][]string
	fired := make([]bool, len(rules))

	for _, imp := range imports {
		pos := imp.Position
		if !pos.valid() {
			pos = ThirdParty
		}
		for _, line := range importStatements(imp.Text) {
			subsumed := false
			for i, r := range rules {
				if r.matches(line) {
					fired[i] = true
					subsumed = true
				}
			}
			if !subsumed {
				buckets[pos] = append(buckets[pos], line)
			}
		}
	}
	for i, r := range rules {
		if fired[i] && r.Position.valid() {
			heads[r.Position] = appendUnique(heads[r.Position], r.Line)
		}
	}

	seen := make(map[string]bool)
	b := NewBuilder()
	for pos := Builtin; pos <= Local; pos++ {
		lines := buckets[pos]
		sort.Strings(lines)
		lines = slices.Compact(lines)

		var emit []string
		for _, l := range append(heads[pos], lines...) {
			if seen[l] {
				continue
			}
			seen[l] = true
			emit = append(emit, l)
		}
		if len(emit) == 0 {
			continue
		}
		b.Blank(1)
		for _, l := range emit {
			b.Lines(l)
		}
	}
	return b.String()
}

// importStatements splits text into complete statements. A parenthesized
// or backslash-continued import stays one statement, its continuation lines
// indented by one level.
func importStatements(text string) []string {
	var stmts, cur []string
	depth := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(cur) > 0 && !strings.HasPrefix(line, ")") {
			line = indentUnit + line
		}
		cur = append(cur, line)
		code := line
		if i := strings.IndexByte(code, '#'); i >= 0 {
			code = code[:i]
		}
		code = strings.TrimSpace(code)
		depth += strings.Count(code, "(") - strings.Count(code, ")")
		if depth > 0 || strings.HasSuffix(code, "\\") {
			continue
		}
		stmts = append(stmts, strings.Join(cur, "\n"))
		cur, depth = nil, 0
	}
	if len(cur) > 0 {
		stmts = append(stmts, strings.Join(cur, "\n"))
	}
	return stmts
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
