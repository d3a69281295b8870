//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package codegen

import "strings"

// Import is one import line and its bucket.
type Import struct {
	Text     string         `json:"text"`
	Position ImportPosition `json:"position"`
}

// EnvVar is an environment variable the generated program expects.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Output is what one entity exporter contributes to a document. It is built
// once per entity per export run and consumed by Assemble.
type Output struct {
	// Entity is the resolved ID other fragments anchor to. Outputs with an
	// empty Entity take no part in the declaration order and may only
	// contribute global fragments.
	Entity string
	// Content is the entity's main block, emitted in declaration order.
	// Nil means the entity has nothing to emit in place.
	Content *string
	Imports []Import
	EnvVars []EnvVar
	Before  []Fragment
	After   []Fragment
}

// SetContent sets the main block.
func (o *Output) SetContent(text string) {
	o.Content = &text
}

// AddImport appends an import line.
func (o *Output) AddImport(text string, pos ImportPosition) {
	o.Imports = append(o.Imports, Import{Text: text, Position: pos})
}

// AddEnvVar appends an environment variable.
func (o *Output) AddEnvVar(key, value string) {
	o.EnvVars = append(o.EnvVars, EnvVar{Key: key, Value: value})
}

// AddBefore appends a fragment emitted ahead of its anchor.
func (o *Output) AddBefore(text string, pos AgentPosition) {
	o.Before = append(o.Before, Fragment{Text: text, Position: pos})
}

// AddAfter appends a fragment emitted behind its anchor.
func (o *Output) AddAfter(text string, pos AgentPosition) {
	o.After = append(o.After, Fragment{Text: text, Position: pos})
}

// FragmentCount returns the number of non-empty fragments, content included.
func (o *Output) FragmentCount() int {
	n := 0
	if o.Content != nil && strings.TrimSpace(*o.Content) != "" {
		n++
	}
	for _, f := range o.Before {
		if strings.TrimSpace(f.Text) != "" {
			n++
		}
	}
	for _, f := range o.After {
		if strings.TrimSpace(f.Text) != "" {
			n++
		}
	}
	return n
}

// CollectEnvVars pools the env vars of all outputs. The first value seen for
// a key wins and first-seen order is kept.
func CollectEnvVars(outputs []Output) []EnvVar {
	seen := make(map[string]bool)
	var vars []EnvVar
	for _, o := range outputs {
		for _, ev := range o.EnvVars {
			if ev.Key == "" || seen[ev.Key] {
				continue
			}
			seen[ev.Key] = true
			vars = append(vars, ev)
		}
	}
	return vars
}
