//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package callable validates user-authored Python callables against named
// signature slots and extracts their bodies for splicing into generated code.
package callable

import (
	"fmt"
	"slices"
	"strings"
)

// Slot names known to the default registry.
const (
	SlotIsTerminationMessage       = "is_termination_message"
	SlotCallableMessage            = "callable_message"
	SlotNestedChatMessage          = "nested_chat_message"
	SlotNestedChatReply            = "nested_chat_reply"
	SlotCustomSpeakerSelection     = "custom_speaker_selection"
	SlotCustomAfterWork            = "custom_after_work"
	SlotCustomOnConditionAvailable = "custom_on_condition_available"
	SlotCustomUpdateSystemMessage  = "custom_update_system_message"
	SlotCustomEmbeddingFunction    = "custom_embedding_function"
	SlotCustomTokenCountFunction   = "custom_token_count_function"
	SlotCustomTextSplitFunction    = "custom_text_split_function"
)

// TypeHints are the parameter and return annotations of a slot, rendered as
// a PEP 484 type comment inside the spliced body.
type TypeHints struct {
	Params []string
	Return string
}

// Comment renders the hints as "# type: (A, B) -> R".
func (h *TypeHints) Comment() string {
	if h == nil {
		return ""
	}
	return fmt.Sprintf("# type: (%s) -> %s", strings.Join(h.Params, ", "), h.Return)
}

// Slot is a named function contract a user callable must satisfy.
type Slot struct {
	// Name is the function name the source must define.
	Name string `json:"name"`
	// Params are the required positional parameter names, in order.
	Params []string `json:"params"`
	// Hints optionally annotate the spliced body.
	Hints *TypeHints `json:"hints,omitempty"`
}

// Signature renders the slot as a one-line Python signature.
func (s Slot) Signature() string {
	return fmt.Sprintf("def %s(%s):", s.Name, strings.Join(s.Params, ", "))
}

func (s Slot) clone() Slot {
	c := Slot{Name: s.Name, Params: slices.Clone(s.Params)}
	if s.Hints != nil {
		c.Hints = &TypeHints{Params: slices.Clone(s.Hints.Params), Return: s.Hints.Return}
	}
	return c
}

// Registry is an immutable table of slots keyed by name.
// The zero value is an empty registry.
type Registry struct {
	slots map[string]Slot
	order []string
}

// NewRegistry builds a registry from the given slots.
func NewRegistry(slots ...Slot) (*Registry, error) {
	r := &Registry{slots: make(map[string]Slot, len(slots))}
	for _, s := range slots {
		if s.Name == "" {
			return nil, fmt.Errorf("slot name is empty")
		}
		if _, ok := r.slots[s.Name]; ok {
			return nil, fmt.Errorf("duplicate slot %q", s.Name)
		}
		r.slots[s.Name] = s.clone()
		r.order = append(r.order, s.Name)
	}
	return r, nil
}

// Lookup returns the slot registered under name.
func (r *Registry) Lookup(name string) (Slot, bool) {
	if r == nil {
		return Slot{}, false
	}
	s, ok := r.slots[name]
	if !ok {
		return Slot{}, false
	}
	return s.clone(), true
}

// Slots returns all slots in registration order.
func (r *Registry) Slots() []Slot {
	if r == nil {
		return nil
	}
	out := make([]Slot, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.slots[name].clone())
	}
	return out
}

// Len returns the number of registered slots.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// With returns a copy of r where the given slots are added or replaced.
func (r *Registry) With(slots ...Slot) *Registry {
	c := &Registry{slots: make(map[string]Slot, r.Len()+len(slots))}
	for _, s := range r.Slots() {
		c.slots[s.Name] = s
		c.order = append(c.order, s.Name)
	}
	for _, s := range slots {
		if _, ok := c.slots[s.Name]; !ok {
			c.order = append(c.order, s.Name)
		}
		c.slots[s.Name] = s.clone()
	}
	return c
}

var nestedChatParams = []string{"recipient", "messages", "sender", "config"}

var nestedChatHints = &TypeHints{
	Params: []string{"ConversableAgent", "list[dict]", "ConversableAgent", "dict"},
	Return: "Union[dict, str]",
}

// DefaultRegistry returns the slots understood by the flow exporters.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Slot{
			Name:   SlotIsTerminationMessage,
			Params: []string{"message"},
			Hints:  &TypeHints{Params: []string{"Dict[str, Any]"}, Return: "bool"},
		},
		Slot{
			Name:   SlotCallableMessage,
			Params: []string{"sender", "recipient", "context"},
			Hints: &TypeHints{
				Params: []string{"ConversableAgent", "ConversableAgent", "dict"},
				Return: "Union[Dict[str, Any], str]",
			},
		},
		Slot{Name: SlotNestedChatMessage, Params: nestedChatParams, Hints: nestedChatHints},
		Slot{Name: SlotNestedChatReply, Params: nestedChatParams, Hints: nestedChatHints},
		Slot{
			Name:   SlotCustomSpeakerSelection,
			Params: []string{"last_speaker", "groupchat"},
			Hints: &TypeHints{
				Params: []string{"ConversableAgent", "GroupChat"},
				Return: "Optional[Union[Agent, str]]",
			},
		},
		Slot{
			Name:   SlotCustomAfterWork,
			Params: []string{"last_speaker", "messages", "groupchat"},
			Hints: &TypeHints{
				Params: []string{"SwarmAgent", "List[Dict[str, Any]]", "GroupChat"},
				Return: "Union[AfterWorkOption, SwarmAgent, str]",
			},
		},
		Slot{
			Name:   SlotCustomOnConditionAvailable,
			Params: []string{"agent", "message"},
			Hints:  &TypeHints{Params: []string{"ConversableAgent", "dict"}, Return: "bool"},
		},
		Slot{
			Name:   SlotCustomUpdateSystemMessage,
			Params: []string{"agent", "messages"},
			Hints: &TypeHints{
				Params: []string{"ConversableAgent", "List[Dict[str, Any]]"},
				Return: "str",
			},
		},
		Slot{
			Name:  SlotCustomEmbeddingFunction,
			Hints: &TypeHints{Return: "Callable[..., Any]"},
		},
		Slot{
			Name:   SlotCustomTokenCountFunction,
			Params: []string{"text", "model"},
			Hints:  &TypeHints{Params: []string{"str", "str"}, Return: "int"},
		},
		Slot{
			Name:   SlotCustomTextSplitFunction,
			Params: []string{"text", "max_tokens", "chunk_mode", "must_break_at_empty_line", "overlap"},
			Hints: &TypeHints{
				Params: []string{"str", "int", "str", "bool", "int"},
				Return: "List[str]",
			},
		},
	)
	if err != nil {
		// The table above is static.
		panic(err)
	}
	return r
}
