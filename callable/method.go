//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package callable

import "strings"

// Method renders a function definition with one parameter per line:
//
//	def name(
//	    a,
//	    b,
//	):
//	    <body>
//
// A body without any statement gets a trailing "pass" so the definition
// always parses.
func Method(name string, params []string, body string) string {
	var b strings.Builder
	b.WriteString("def ")
	b.WriteString(name)
	if len(params) == 0 {
		b.WriteString("():\n")
	} else {
		b.WriteString("(\n")
		for _, p := range params {
			b.WriteString(bodyIndent)
			b.WriteString(p)
			b.WriteString(",\n")
		}
		b.WriteString("):\n")
	}
	switch {
	case strings.TrimSpace(body) == "":
		body = bodyIndent + "pass"
	case commentOnly(body):
		body += "\n" + leadingIndent(body) + "pass"
	}
	b.WriteString(body)
	return b.String()
}

// HasStatements reports whether body contains anything besides blank
// lines, comments and pass.
func HasStatements(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "pass" || strings.HasPrefix(line, "#") {
			continue
		}
		return true
	}
	return false
}

func commentOnly(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return false
		}
	}
	return true
}
