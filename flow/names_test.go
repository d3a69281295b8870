//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Planner", "planner"},
		{"Trip Planner", "trip_planner"},
		{"  spaced -- out  ", "spaced_out"},
		{"Café Crème", "cafe_creme"},
		{"ﬁle", "file"},
		{"42 things", "agent_42_things"},
		{"", "agent"},
		{"!!!", "agent"},
		{"class", "class_"},
		{"None", "none"},
		{strings.Repeat("a", 80), strings.Repeat("a", 64)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(tt.in, "agent"))
		})
	}
}

func TestResolveNames_Unique(t *testing.T) {
	f := &Flow{
		Name: "My Flow!",
		Agents: []Agent{
			{ID: "a1", Name: "Helper"},
			{ID: "a2", Name: "helper"},
			{ID: "a3", Name: "HELPER"},
		},
		Models: []Model{{ID: "m1", Name: "helper"}},
		Skills: []Skill{{ID: "s1", Name: "search"}},
		Chats:  []Chat{{ID: "c1"}, {ID: "c2", Name: "Kick off"}},
	}
	n := ResolveNames(f)
	assert.Equal(t, "my_flow", n.Flow)
	assert.Equal(t, "helper", n.Agent("a1"))
	assert.Equal(t, "helper_1", n.Agent("a2"))
	assert.Equal(t, "helper_2", n.Agent("a3"))
	assert.Equal(t, "helper_3", n.Model("m1"))
	assert.Equal(t, "search", n.Skill("s1"))
	assert.Equal(t, "c1", n.Chat("c1"))
	assert.Equal(t, "kick_off", n.Chat("c2"))
	assert.Equal(t, "unknown", n.Agent("unknown"))
}
