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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_Indentation(t *testing.T) {
	b := NewBuilder()
	b.Line("def main():").Indent()
	b.Line("if True:").Indent()
	b.Line("pass").Dedent().Dedent().Dedent()
	b.Line("main()")
	assert.Equal(t, "def main():\n    if True:\n        pass\nmain()\n", b.String())
}

func TestBuilder_BlankLines(t *testing.T) {
	b := NewBuilder()
	b.Blank(2)
	assert.True(t, b.Empty())

	b.Line("a").Line("").Line("").Line("").Line("   ").Line("b")
	assert.Equal(t, "a\n\n\nb\n", b.String())

	b.Blank(2).Blank(1)
	b.Line("c")
	assert.Equal(t, "a\n\n\nb\n\nc\n", b.String())

	b.Blank(5)
	assert.Equal(t, "a\n\n\nb\n\nc\n", b.String())
	b.Linef("%s = %d", "d", 4)
	assert.Equal(t, "a\n\n\nb\n\nc\n\n\nd = 4\n", b.String())
}

func TestBuilder_LinesIndentsEachLine(t *testing.T) {
	b := NewBuilder()
	b.Line("results = initiate_chats(").Indent()
	b.Lines("[\n    1,\n\n    2,\n]\n")
	b.Dedent().Line(")")
	assert.Equal(t, "results = initiate_chats(\n    [\n        1,\n\n        2,\n    ]\n)\n", b.String())
}

func TestNormalizeBlankLines(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"a\n", "a\n"},
		{"a", "a"},
		{"\n\na\n\n\n\n\nb\n\n", "a\n\n\nb\n"},
		{"a\n \t\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		got := NormalizeBlankLines(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, NormalizeBlankLines(got))
	}
}
