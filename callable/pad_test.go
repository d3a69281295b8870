//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package callable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPadEmptyDefs(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		want   string
		padded []int
	}{
		{
			name: "real block untouched",
			src:  "def f(a):\n    return a\n",
			want: "def f(a):\n    return a\n",
		},
		{
			name:   "comment only",
			src:    "def f(a):\n    # c\n",
			want:   "def f(a):\n    # c\n    pass\n",
			padded: []int{2},
		},
		{
			name:   "multi-line header with trailing comment",
			src:    "def f(\n    a,\n):  # why\n",
			want:   "def f(\n    a,\n):  # why\n    pass\n",
			padded: []int{3},
		},
		{
			name:   "nested",
			src:    "def outer():\n    def f(a):\n        # c\n    return f\n",
			want:   "def outer():\n    def f(a):\n        # c\n        pass\n    return f\n",
			padded: []int{3},
		},
		{
			name: "inline body",
			src:  "def f(a): return a\n",
			want: "def f(a): return a\n",
		},
		{
			name: "hash inside string",
			src:  "def f(a='#'):\n    return a\n",
			want: "def f(a='#'):\n    return a\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, padded := padEmptyDefs(tt.src)
			assert.Equal(t, tt.want, got)
			var rows []int
			for r := range padded {
				rows = append(rows, r)
			}
			assert.ElementsMatch(t, tt.padded, rows)
		})
	}
}
