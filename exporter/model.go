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
	"strconv"

	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
)

var _ EntityExporter = (*ModelExporter)(nil)

// ModelExporter emits a model's llm_config dict.
type ModelExporter struct {
	scope *Scope
	model *flow.Model
}

// NewModelExporter creates an exporter for m.
func NewModelExporter(scope *Scope, m *flow.Model) *ModelExporter {
	return &ModelExporter{scope: scope, model: m}
}

// Kind implements EntityExporter.
func (e *ModelExporter) Kind() string { return KindModel }

// ConfigName is the variable the llm_config is bound to.
func ConfigName(names *flow.Names, modelID string) string {
	return names.Model(modelID) + "_llm_config"
}

// Export implements EntityExporter.
func (e *ModelExporter) Export(_ context.Context) (*EntityOutput, error) {
	m := e.model
	name := e.scope.Names.Model(m.ID)

	var entries args
	entries.addStr("model", m.Name)
	entries.addStrIf("api_type", m.APIType)
	entries.addStrIf("base_url", m.BaseURL)
	entries.addStrIf("api_version", m.APIVersion)
	entries.add("api_key", e.scope.APIKeyGetter()+"("+pyStr(name)+")")
	if m.Temperature != nil {
		entries.add("temperature", pyFloat(*m.Temperature))
	}
	if m.TopP != nil {
		entries.add("top_p", pyFloat(*m.TopP))
	}
	if m.MaxTokens != nil {
		entries.add("max_tokens", strconv.Itoa(*m.MaxTokens))
	}
	if len(m.DefaultHeaders) > 0 {
		keys := make([]string, 0, len(m.DefaultHeaders))
		for k := range m.DefaultHeaders {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var headers args
		for _, k := range keys {
			headers.addStr(k, m.DefaultHeaders[k])
		}
		entries.add("default_headers", pyDict(headers))
	}
	if m.Price != nil {
		entries.add("price", "["+pyFloat(m.Price.PromptTokens)+", "+pyFloat(m.Price.CompletionTokens)+"]")
	}

	out := &EntityOutput{}
	out.Entity = name
	out.SetContent(ConfigName(e.scope.Names, m.ID) + ": Dict[str, Any] = " + pyDict(entries))
	out.AddImport("from "+e.scope.APIKeysModule()+" import "+e.scope.APIKeyGetter(), codegen.Local)
	envVar := e.scope.APIKeyEnv[m.ID]
	if v := e.scope.APIKeyValues[envVar]; v != "" {
		out.AddEnvVar(envVar, v)
	}
	return out, nil
}
