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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func content(s string) *string { return &s }

func TestAssemble_ManagerDeferredToAfterAll(t *testing.T) {
	alice := Output{Entity: "alice", Content: content("alice = AssistantAgent(name=\"alice\")")}
	alice.AddAfter("alice.register_for_llm(tool)", AfterAllPosition(1))
	bob := Output{Entity: "bob", Content: content("bob = AssistantAgent(name=\"bob\")")}
	bob.AddAfter("bob.register_for_llm(tool)", AfterAllPosition(2))
	mgr := Output{Entity: "mgr"}
	mgr.AddAfter("mgr = GroupChatManager(groupchat=mgr_group_chat)", AfterAllPosition(0))

	got, err := NewAssembler().Assemble([]Output{alice, bob, mgr})
	require.NoError(t, err)

	iMgr := strings.Index(got, "mgr = GroupChatManager")
	iAlice := strings.Index(got, "alice.register_for_llm")
	iBob := strings.Index(got, "bob.register_for_llm")
	require.True(t, iMgr >= 0 && iAlice >= 0 && iBob >= 0, got)
	assert.Less(t, iMgr, iAlice)
	assert.Less(t, iAlice, iBob)
	assert.Less(t, strings.Index(got, "bob = AssistantAgent"), iMgr)
}

func TestAssemble_BaselineImportsOnly(t *testing.T) {
	a := NewAssembler(WithBaselineImports(
		Import{Text: "import os", Position: Builtin},
		Import{Text: "from autogen import ConversableAgent", Position: ThirdParty},
	))
	got, err := a.Assemble([]Output{{Entity: "alice", Content: content("alice = 1")}})
	require.NoError(t, err)
	assert.Equal(t, "import os\n\nfrom autogen import ConversableAgent\n\nalice = 1\n", got)
}

func TestAssemble_NoImportsAtAll(t *testing.T) {
	got, err := NewAssembler().Assemble([]Output{{Entity: "a", Content: content("a = 1")}})
	require.NoError(t, err)
	assert.Equal(t, "a = 1\n", got)
}

func TestAssemble_Linearization(t *testing.T) {
	models := Output{Entity: "gpt", Content: content("gpt_llm_config = {}")}
	alice := Output{Entity: "alice", Content: content("alice = make()")}
	alice.AddBefore("def late_helper():\n    pass", EntityPosition("alice", 5))
	alice.AddBefore("def early_helper():\n    pass", EntityPosition("alice", 1))
	alice.AddAfter("alice.tweak(2)", EntityPosition("alice", 2))
	bob := Output{Entity: "bob", Content: content("bob = make()")}
	bob.AddAfter("alice.tweak(0)", EntityPosition("alice", 0))
	bob.AddBefore("# bob comes next", EntityPosition("bob", 0))
	driver := Output{}
	driver.AddBefore("runtime_logging.start()", BeforeAllPosition(0))
	driver.AddAfter("main()", AfterAllPosition(100))
	driver.AddAfter("def main():\n    pass", AfterAllPosition(99))

	got, err := NewAssembler().Assemble([]Output{models, alice, bob, driver})
	require.NoError(t, err)

	want := []string{
		"runtime_logging.start()",
		"gpt_llm_config = {}",
		"def early_helper():",
		"def late_helper():",
		"alice = make()",
		"alice.tweak(0)",
		"alice.tweak(2)",
		"# bob comes next",
		"bob = make()",
		"def main():",
		"main()",
	}
	assertInOrder(t, got, want)
	assert.NotContains(t, got, "\n\n\n\n")
	assert.Contains(t, got, "gpt_llm_config = {}\n\n\ndef early_helper():")
}

func TestAssemble_EqualOrdersKeepDeclarationOrder(t *testing.T) {
	var outs []Output
	for _, name := range []string{"c", "a", "b"} {
		o := Output{Entity: name, Content: content(name + " = 1")}
		o.AddAfter(name+"_tail()", AfterAllPosition(3))
		outs = append(outs, o)
	}
	got, err := NewAssembler().Assemble(outs)
	require.NoError(t, err)
	assertInOrder(t, got, []string{"c_tail()", "a_tail()", "b_tail()"})
}

func TestAssemble_Idempotent(t *testing.T) {
	alice := Output{Entity: "alice", Content: content("alice = 1")}
	alice.AddImport("from autogen import AssistantAgent", ThirdParty)
	alice.AddImport("import json", Builtin)
	alice.AddAfter("x = 1\n\n\n\n\ny = 2", AfterAllPosition(1))
	bob := Output{Entity: "bob", Content: content("bob = 2")}
	bob.AddImport("import json", Builtin)
	outs := []Output{alice, bob}

	a := NewAssembler(WithHeader("#!/usr/bin/env python"))
	first, err := a.Assemble(outs)
	require.NoError(t, err)
	second, err := a.Assemble(outs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, NormalizeBlankLines(first))
	assert.Contains(t, first, "x = 1\n\n\ny = 2")
	assert.True(t, strings.HasPrefix(first, "#!/usr/bin/env python\n\nimport json\n\nfrom autogen import AssistantAgent\n\n"))
}

func TestAssemble_CellMarker(t *testing.T) {
	o := Output{Entity: "a", Content: content("a = 1")}
	o.AddImport("import os", Builtin)
	got, err := NewAssembler(WithCellMarker("# %%")).Assemble([]Output{o})
	require.NoError(t, err)
	assert.Equal(t, "# %%\nimport os\n\n# %%\na = 1\n", got)
}

func TestAssemble_Errors(t *testing.T) {
	tests := []struct {
		name    string
		outputs func() []Output
		opts    []AssemblerOption
		reason  string
	}{
		{
			name: "unknown entity anchor",
			outputs: func() []Output {
				o := Output{Entity: "alice"}
				o.AddAfter("ghost.x()", EntityPosition("ghost", 0))
				return []Output{o}
			},
			reason: "not a declared entity",
		},
		{
			name: "duplicate entity",
			outputs: func() []Output {
				return []Output{{Entity: "alice"}, {Entity: "alice"}}
			},
			reason: "more than once",
		},
		{
			name: "global anchor naming entity",
			outputs: func() []Output {
				o := Output{Entity: "alice"}
				o.AddAfter("x", AgentPosition{Anchor: AfterAll, Entity: "alice"})
				return []Output{o}
			},
			reason: "must not name an entity",
		},
		{
			name: "entity anchor from entity-less output",
			outputs: func() []Output {
				var global Output
				global.AddBefore("x", EntityPosition("alice", 0))
				return []Output{{Entity: "alice"}, global}
			},
			reason: "only use global anchors",
		},
		{
			name: "content without entity",
			outputs: func() []Output {
				content := "x = 1"
				return []Output{{Content: &content}}
			},
			reason: "content without entity",
		},
		{
			name: "unknown anchor kind",
			outputs: func() []Output {
				o := Output{Entity: "alice"}
				o.AddAfter("x", AgentPosition{Anchor: Anchor(9)})
				return []Output{o}
			},
			reason: "unknown anchor",
		},
		{
			name: "strict duplicate order",
			outputs: func() []Output {
				o := Output{Entity: "alice"}
				o.AddAfter("x", AfterAllPosition(1))
				o.AddAfter("y", AfterAllPosition(1))
				return []Output{o}
			},
			opts:   []AssemblerOption{WithStrictOrders(true)},
			reason: "already claimed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAssembler(tt.opts...).Assemble(tt.outputs())
			require.Error(t, err)
			assert.Empty(t, got)
			assert.ErrorIs(t, err, ErrAssembly)
			var asmErr *AssemblyError
			require.True(t, errors.As(err, &asmErr))
			assert.Contains(t, asmErr.Reason, tt.reason)
		})
	}
}

func TestAssemble_NonStrictAllowsSharedOrder(t *testing.T) {
	o := Output{Entity: "alice"}
	o.AddAfter("x = 1", AfterAllPosition(1))
	o.AddAfter("y = 2", AfterAllPosition(1))
	got, err := NewAssembler().Assemble([]Output{o})
	require.NoError(t, err)
	assertInOrder(t, got, []string{"x = 1", "y = 2"})
}

func TestCollectEnvVars(t *testing.T) {
	a := Output{}
	a.AddEnvVar("OPENAI_API_KEY", "sk-1")
	a.AddEnvVar("", "ignored")
	b := Output{}
	b.AddEnvVar("SECRET", "s")
	b.AddEnvVar("OPENAI_API_KEY", "sk-2")
	assert.Equal(t, []EnvVar{{"OPENAI_API_KEY", "sk-1"}, {"SECRET", "s"}}, CollectEnvVars([]Output{a, b}))
}

func TestOutput_FragmentCount(t *testing.T) {
	o := Output{}
	assert.Equal(t, 0, o.FragmentCount())
	o.SetContent("x = 1")
	o.AddBefore("  \n", BeforeAllPosition(0))
	o.AddAfter("y = 2", AfterAllPosition(0))
	assert.Equal(t, 2, o.FragmentCount())
}

func assertInOrder(t *testing.T, doc string, parts []string) {
	t.Helper()
	last := -1
	for _, p := range parts {
		i := strings.Index(doc, p)
		require.GreaterOrEqual(t, i, 0, "missing %q in:\n%s", p, doc)
		require.Greater(t, i, last, "%q out of order in:\n%s", p, doc)
		last = i
	}
}
