//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package exporter

import (
	"context"
	"sort"
	"strings"

	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
)

var _ EntityExporter = (*SkillExporter)(nil)

// SkillExporter writes a skill into its own module and imports it.
type SkillExporter struct {
	scope *Scope
	skill *flow.Skill
}

// NewSkillExporter creates an exporter for s.
func NewSkillExporter(scope *Scope, s *flow.Skill) *SkillExporter {
	return &SkillExporter{scope: scope, skill: s}
}

// Kind implements EntityExporter.
func (e *SkillExporter) Kind() string { return KindSkill }

// Export implements EntityExporter. The skill's parameters are free, so only
// the presence of a function named after the skill is checked.
func (e *SkillExporter) Export(ctx context.Context) (*EntityOutput, error) {
	s := e.skill
	name := e.scope.Names.Skill(s.ID)
	if _, err := e.scope.Validator.Find(ctx, s.Content, s.Name); err != nil {
		return nil, &CallableError{Entity: "skill " + s.Name, Slot: s.Name, Err: err}
	}

	module := e.scope.FlowName() + "_" + name
	out := &EntityOutput{}
	out.Entity = name

	imported := s.Name
	if imported != name {
		imported += " as " + name
	}
	out.AddImport("from "+module+" import "+imported+"  # type: ignore # noqa", codegen.Local)
	out.addFile(module+".py", []byte(skillModule(s)))

	if len(s.Secrets) > 0 {
		keys := make([]string, 0, len(s.Secrets))
		for k := range s.Secrets {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b := codegen.NewBuilder()
		b.Linef(`"""Secrets for the skill %s."""`, s.Name)
		b.Blank(1)
		b.Line("import os")
		b.Blank(1)
		for _, k := range keys {
			b.Linef("os.environ[%s] = %s", pyStr(k), pyStr(s.Secrets[k]))
			out.AddEnvVar(k, s.Secrets[k])
		}
		out.addFile(module+"_secrets.py", []byte(b.String()))
		out.AddImport("import "+module+"_secrets  # noqa", codegen.Local)
	}
	return out, nil
}

func skillModule(s *flow.Skill) string {
	b := codegen.NewBuilder()
	doc := strings.TrimSpace(s.Description)
	if doc == "" {
		doc = "Skill " + s.Name + "."
	}
	b.Lines(`"""` + strings.ReplaceAll(doc, `"""`, `\"\"\"`) + "\n" + `"""`)
	b.Blank(1)
	b.Lines(strings.ReplaceAll(s.Content, "\r\n", "\n"))
	return b.String()
}

// skillRefs returns the import names of the given skill IDs.
func (s *Scope) skillRefs(ids []string) []string {
	refs := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.Flow.Skill(id); ok {
			refs = append(refs, s.Names.Skill(id))
		}
	}
	return refs
}
