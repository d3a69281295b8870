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
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxIdentifierLen = 64

var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
	"match": true, "case": true, "type": true,
}

// Names maps entity IDs to Python identifiers that are valid and unique
// within one generated document.
type Names struct {
	Flow   string
	Agents map[string]string
	Models map[string]string
	Skills map[string]string
	Chats  map[string]string
}

// Agent returns the identifier of agent id, or id itself if unknown.
func (n *Names) Agent(id string) string { return lookup(n.Agents, id) }

// Model returns the identifier of model id, or id itself if unknown.
func (n *Names) Model(id string) string { return lookup(n.Models, id) }

// Skill returns the identifier of skill id, or id itself if unknown.
func (n *Names) Skill(id string) string { return lookup(n.Skills, id) }

// Chat returns the identifier of chat id, or id itself if unknown.
func (n *Names) Chat(id string) string { return lookup(n.Chats, id) }

func lookup(m map[string]string, id string) string {
	if name, ok := m[id]; ok {
		return name
	}
	return id
}

// ResolveNames assigns identifiers in declaration order: agents, models,
// skills, then chats. Collisions get _1, _2, ... suffixes.
func ResolveNames(f *Flow) *Names {
	used := make(map[string]bool)
	unique := func(base string) string {
		name := base
		for i := 1; used[name]; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		used[name] = true
		return name
	}

	n := &Names{
		Flow:   Identifier(f.Name, "flow"),
		Agents: make(map[string]string, len(f.Agents)),
		Models: make(map[string]string, len(f.Models)),
		Skills: make(map[string]string, len(f.Skills)),
		Chats:  make(map[string]string, len(f.Chats)),
	}
	for _, a := range f.Agents {
		n.Agents[a.ID] = unique(Identifier(a.Name, "agent"))
	}
	for _, m := range f.Models {
		n.Models[m.ID] = unique(Identifier(m.Name, "model"))
	}
	for _, s := range f.Skills {
		n.Skills[s.ID] = unique(Identifier(s.Name, "skill"))
	}
	for _, c := range f.Chats {
		name := c.Name
		if name == "" {
			name = c.ID
		}
		n.Chats[c.ID] = unique(Identifier(name, "chat"))
	}
	return n
}

// Identifier turns a display name into a lowercase Python identifier.
// Accents are stripped, other non-alphanumerics become underscores, and a
// leading digit or an empty result is prefixed with fallback.
func Identifier(name, fallback string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	id := strings.TrimRight(b.String(), "_")
	if id == "" {
		id = fallback
	} else if id[0] >= '0' && id[0] <= '9' {
		id = fallback + "_" + id
	}
	if len(id) > maxIdentifierLen {
		id = strings.TrimRight(id[:maxIdentifierLen], "_")
	}
	if pythonKeywords[id] {
		id += "_"
	}
	return id
}
