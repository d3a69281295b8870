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

// padEmptyDefs inserts "pass" into every def whose block has only comments
// or blank lines. It returns the patched source and the 0-based rows of the
// inserted lines.
func padEmptyDefs(src string) (string, map[int]bool) {
	lines := strings.Split(src, "\n")
	insertAfter := make(map[int]string)
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " \t")
		if !strings.HasPrefix(trimmed, "def ") && !strings.HasPrefix(trimmed, "async def ") {
			continue
		}
		indent := lines[i][:len(lines[i])-len(trimmed)]
		end := headerEnd(lines, i)
		if end < 0 {
			continue
		}
		last, k := end, end+1
		for ; k < len(lines); k++ {
			t := strings.TrimSpace(lines[k])
			if t == "" {
				continue
			}
			if strings.HasPrefix(t, "#") {
				last = k
				continue
			}
			break
		}
		if k < len(lines) && indentWidth(lines[k]) > len(indent) {
			continue
		}
		insertAfter[last] = indent + bodyIndent
		i = end
	}
	if len(insertAfter) == 0 {
		return src, nil
	}

	out := make([]string, 0, len(lines)+len(insertAfter))
	padded := make(map[int]bool, len(insertAfter))
	for i, line := range lines {
		out = append(out, line)
		if ind, ok := insertAfter[i]; ok {
			padded[len(out)] = true
			out = append(out, ind+"pass")
		}
	}
	return strings.Join(out, "\n"), padded
}

// headerEnd returns the row whose colon closes the def header starting at
// row start, or -1 when the header has an inline body or never closes.
func headerEnd(lines []string, start int) int {
	depth := 0
	for row := start; row < len(lines); row++ {
		code := codePart(lines[row])
		depth += strings.Count(code, "(") + strings.Count(code, "[") -
			strings.Count(code, ")") - strings.Count(code, "]")
		if depth > 0 {
			continue
		}
		if strings.HasSuffix(strings.TrimSpace(code), ":") {
			return row
		}
		return -1
	}
	return -1
}

// codePart strips a trailing comment, ignoring '#' inside quotes.
func codePart(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
