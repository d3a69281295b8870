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
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var checkSlot = Slot{Name: "check", Params: []string{"message"}}

func TestValidate_ArgNameMismatch(t *testing.T) {
	v := NewValidator()
	_, err := v.Validate(context.Background(), "def check(msg):\n    return True", checkSlot, "alice")
	require.Error(t, err)

	var argErr *ArgNameError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "message", argErr.Expected)
	assert.Equal(t, "msg", argErr.Actual)
	assert.Equal(t, 0, argErr.Position)
	assert.ErrorIs(t, err, ErrContract)
	assert.Equal(t, "arg_name", Kind(err))
}

func TestValidate_ContractErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		slot     Slot
		wantKind string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "one extra parameter",
			source:   "def check(message, extra):\n    return True\n",
			slot:     checkSlot,
			wantKind: "arity",
			check: func(t *testing.T, err error) {
				var arity *ArityError
				require.True(t, errors.As(err, &arity))
				assert.Equal(t, 1, arity.Expected)
				assert.Equal(t, 2, arity.Actual)
			},
		},
		{
			name:     "missing parameter",
			source:   "def check():\n    return True\n",
			slot:     checkSlot,
			wantKind: "arity",
			check: func(t *testing.T, err error) {
				var arity *ArityError
				require.True(t, errors.As(err, &arity))
				assert.Equal(t, 0, arity.Actual)
			},
		},
		{
			name:     "first name differs",
			source:   "def pair(a, b):\n    return a\n",
			slot:     Slot{Name: "pair", Params: []string{"x", "b"}},
			wantKind: "arg_name",
			check: func(t *testing.T, err error) {
				var argErr *ArgNameError
				require.True(t, errors.As(err, &argErr))
				assert.Equal(t, 0, argErr.Position)
				assert.Equal(t, "x", argErr.Expected)
				assert.Equal(t, "a", argErr.Actual)
			},
		},
		{
			name:     "second name differs",
			source:   "def pair(x, y):\n    return x\n",
			slot:     Slot{Name: "pair", Params: []string{"x", "b"}},
			wantKind: "arg_name",
			check: func(t *testing.T, err error) {
				var argErr *ArgNameError
				require.True(t, errors.As(err, &argErr))
				assert.Equal(t, 1, argErr.Position)
			},
		},
		{
			name:     "function missing",
			source:   "def other(message):\n    return True\n",
			slot:     checkSlot,
			wantKind: "not_found",
			check: func(t *testing.T, err error) {
				var nf *NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, "check", nf.Name)
			},
		},
		{
			name:     "empty source",
			source:   "",
			slot:     checkSlot,
			wantKind: "not_found",
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(context.Background(), tt.source, tt.slot, "x")
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrContract)
			assert.Equal(t, tt.wantKind, Kind(err))
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestValidate_SyntaxError(t *testing.T) {
	v := NewValidator()
	_, err := v.Validate(context.Background(), "def check(message:\n    return True\n", checkSlot, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.NotErrorIs(t, err, ErrContract)
	assert.Equal(t, "syntax", Kind(err))
	assert.Contains(t, err.Error(), "invalid python")
}

func TestValidate_SourceLimit(t *testing.T) {
	v := NewValidator(WithMaxSourceBytes(16))
	_, err := v.Validate(context.Background(), "def check(message):\n    return True\n", checkSlot, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Contains(t, err.Error(), "limit is 16")
}

func TestValidate_Body(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "simple",
			source: "def check(message):\n    return True\n",
			want:   "    return True",
		},
		{
			name:   "no trailing newline",
			source: "def check(message):\n    return True",
			want:   "    return True",
		},
		{
			name:   "internal blank lines kept",
			source: "def check(message):\n    found = False\n\n    return found\n\n\n",
			want:   "    found = False\n\n    return found",
		},
		{
			name:   "multi-line signature",
			source: "def check(\n    message,\n):\n    return True\n",
			want:   "    return True",
		},
		{
			name:   "annotated signature",
			source: "def check(message: dict) -> bool:\n    return bool(message)\n",
			want:   "    return bool(message)",
		},
		{
			name:   "inline body",
			source: "def check(message): return True\n",
			want:   "    return True",
		},
		{
			name:   "after a helper",
			source: "def helper(x):\n    return x\n\n\ndef check(message):\n    return helper(message)\n",
			want:   "    return helper(message)",
		},
		{
			name:   "nested definition",
			source: "def outer():\n    def check(message):\n        return True\n    return check\n",
			want:   "        return True",
		},
		{
			name:   "decorated",
			source: "@staticmethod\ndef check(message):\n    return True\n",
			want:   "    return True",
		},
		{
			name:   "pass only",
			source: "def check(message):\n    pass\n",
			want:   "    pass",
		},
		{
			name:   "comment only",
			source: "def check(message):\n    # nothing to do yet\n",
			want:   "    # nothing to do yet",
		},
		{
			name:   "comment only before another def",
			source: "def check(message):\n    # todo\n\n\ndef other():\n    return 1\n",
			want:   "    # todo",
		},
		{
			name:   "empty body at end of source",
			source: "def check(message):\n",
			want:   "",
		},
		{
			name:   "comments split by blank lines",
			source: "def check(message):\n    # first\n\n    # second\n",
			want:   "    # first\n\n    # second",
		},
		{
			name:   "comment only method",
			source: "class Rules:\n    def check(message):\n        # later\n\n    def other(self):\n        return 1\n",
			want:   "        # later",
		},
		{
			name:   "crlf line endings",
			source: "def check(message):\r\n    return True\r\n",
			want:   "    return True",
		},
	}

	v := NewValidator(WithTypeHints(false))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(context.Background(), tt.source, checkSlot, "bob")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Body)
			assert.Equal(t, "check_bob", got.Name)
			assert.NotContains(t, got.Body, "def check")
		})
	}
}

func TestValidate_FirstMatchWins(t *testing.T) {
	src := "def check(message):\n    return 1\n\n\ndef check(message):\n    return 2\n"
	got, err := NewValidator(WithTypeHints(false)).Validate(context.Background(), src, checkSlot, "")
	require.NoError(t, err)
	assert.Equal(t, "    return 1", got.Body)
	assert.Equal(t, "check", got.Name)
}

func TestValidate_FirstMatchPrefersOuterDefinition(t *testing.T) {
	src := "def outer():\n    def check(message):\n        return 'nested'\n    return check\n\n\n" +
		"def check(message):\n    return 'top'\n"
	got, err := NewValidator(WithTypeHints(false)).Validate(context.Background(), src, checkSlot, "")
	require.NoError(t, err)
	assert.Equal(t, "    return 'top'", got.Body)
}

func TestValidate_PositionalOnlyAndAsync(t *testing.T) {
	v := NewValidator(WithTypeHints(false))

	got, err := v.Validate(context.Background(), "def check(message, /):\n    return True\n", checkSlot, "")
	require.NoError(t, err)
	assert.Equal(t, "    return True", got.Body)

	got, err = v.Validate(context.Background(), "async def check(message):\n    return True\n", checkSlot, "")
	require.NoError(t, err)
	assert.Equal(t, "    return True", got.Body)
}

func TestExtractBody_EmptyBlock(t *testing.T) {
	src := []byte("def check(message):\n    # kept\n")
	tree, err := parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	defs := collectDefinitions(tree.RootNode(), src, "check")
	require.Len(t, defs, 1)
	assert.Equal(t, "    # kept", extractBody(defs[0], src, nil))
}

func TestValidate_FirstMatchIsValidatedEvenIfLaterOneFits(t *testing.T) {
	src := "def check(msg):\n    return 1\n\n\ndef check(message):\n    return 2\n"
	_, err := NewValidator().Validate(context.Background(), src, checkSlot, "")
	var argErr *ArgNameError
	require.True(t, errors.As(err, &argErr))
}

func TestValidate_UniqueTopLevel(t *testing.T) {
	v := NewValidator(WithMatchPolicy(MatchUniqueTopLevel), WithTypeHints(false))

	dup := "def check(message):\n    return 1\n\n\ndef check(message):\n    return 2\n"
	_, err := v.Validate(context.Background(), dup, checkSlot, "")
	var dupErr *DuplicateError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, 2, dupErr.Count)
	assert.ErrorIs(t, err, ErrContract)

	nested := "def outer():\n    def check(message):\n        return True\n    return check\n"
	_, err = v.Validate(context.Background(), nested, checkSlot, "")
	assert.Equal(t, "not_found", Kind(err))

	decorated := "@cache\ndef check(message):\n    return True\n"
	got, err := v.Validate(context.Background(), decorated, checkSlot, "")
	require.NoError(t, err)
	assert.Equal(t, "    return True", got.Body)
}

func TestValidate_TypeHints(t *testing.T) {
	v := NewValidator()
	got, err := v.ValidateSlot(context.Background(),
		"def is_termination_message(message):\n    return message.get(\"content\") == \"TERMINATE\"\n",
		SlotIsTerminationMessage, "assistant")
	require.NoError(t, err)
	assert.Equal(t, "is_termination_message_assistant", got.Name)
	lines := strings.Split(got.Body, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "    # type: (Dict[str, Any]) -> bool", lines[0])
	assert.Equal(t, "    return message.get(\"content\") == \"TERMINATE\"", lines[1])
}

func TestValidateSlot_Unknown(t *testing.T) {
	_, err := NewValidator().ValidateSlot(context.Background(), "def x():\n    pass\n", "nope", "")
	require.Error(t, err)
	assert.Empty(t, Kind(err))
}

func TestValidate_RoundTrip(t *testing.T) {
	sources := map[string]string{
		SlotIsTerminationMessage:      "import re\n\ndef is_termination_message(message):\n    content = message.get(\"content\", \"\")\n    return bool(re.search(\"TERMINATE\", content))\n",
		SlotCallableMessage:           "def callable_message(\n    sender,\n    recipient,\n    context,\n):\n    return \"hello\"\n",
		SlotCustomUpdateSystemMessage: "def custom_update_system_message(agent, messages): return \"sys\"\n",
		SlotCustomEmbeddingFunction:   "def custom_embedding_function():\n    # build the embedder lazily\n    return None\n",
	}
	v := NewValidator()
	for slotName, src := range sources {
		t.Run(slotName, func(t *testing.T) {
			got, err := v.ValidateSlot(context.Background(), src, slotName, "renamed")
			require.NoError(t, err)

			method := got.Method()
			assert.True(t, strings.HasPrefix(method, "def "+slotName+"_renamed("))

			sig, err := v.Find(context.Background(), method, got.Name)
			require.NoError(t, err)
			assert.ElementsMatch(t, got.Params, sig.Params)
			assert.True(t, sig.TopLevel)
			assert.Equal(t, 1, sig.Line)

			slot, ok := v.Registry().Lookup(slotName)
			require.True(t, ok)
			slot.Name = got.Name
			again, err := NewValidator(WithTypeHints(false)).Validate(context.Background(), method, slot, "")
			require.NoError(t, err)
			assert.Equal(t, got.Body, again.Body)
		})
	}
}

func TestFind_FreeParameters(t *testing.T) {
	v := NewValidator()
	sig, err := v.Find(context.Background(),
		"def search(query: str, limit: int = 5, /, *args, verbose=False, **kwargs):\n    return []\n", "search")
	require.NoError(t, err)
	assert.Equal(t, []string{"query", "limit"}, sig.Params)

	sig, err = v.Find(context.Background(), "def run(a, *, b):\n    return a\n", "run")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sig.Params)

	_, err = v.Find(context.Background(), "x = 1\n", "run")
	assert.Equal(t, "not_found", Kind(err))
}

func TestValidator_ConcurrentUse(t *testing.T) {
	v := NewValidator()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := v.Validate(context.Background(), "def check(message):\n    return True\n", checkSlot, "c")
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
