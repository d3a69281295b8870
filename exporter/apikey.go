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
	"fmt"
	"strings"
)

// providerAliases maps api types whose SDK reads a differently named variable.
var providerAliases = map[string]string{
	"GOOGLE": "GEMINI",
}

// apiKeyAllocator assigns environment variable names to model API keys.
// Names derive from the api type: OPENAI_API_KEY, OPENAI_API_KEY_2, ...
// Models sharing an api type and key share a variable.
type apiKeyAllocator struct {
	// providerCount tracks how many distinct keys each provider has.
	providerCount map[string]int
	// mapping maps (provider, api_key) to the variable name.
	mapping map[string]string
}

func newAPIKeyAllocator() *apiKeyAllocator {
	return &apiKeyAllocator{
		providerCount: make(map[string]int),
		mapping:       make(map[string]string),
	}
}

// allocate returns the variable for (apiType, apiKey) and the value to put
// in it. A key of the form "env:NAME" names the variable directly and has
// no value.
func (a *apiKeyAllocator) allocate(apiType, apiKey string) (envVar, value string) {
	apiKey = strings.TrimSpace(apiKey)
	if name, found := strings.CutPrefix(apiKey, "env:"); found {
		if name = strings.TrimSpace(name); name != "" {
			return name, ""
		}
	}

	provider := strings.ToUpper(strings.TrimSpace(apiType))
	if provider == "" {
		provider = "OPENAI"
	}
	if alias, ok := providerAliases[provider]; ok {
		provider = alias
	}
	provider = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, provider)

	dedupeKey := provider + "\x00" + apiKey
	if envVar, ok := a.mapping[dedupeKey]; ok {
		return envVar, apiKey
	}
	a.providerCount[provider]++
	if n := a.providerCount[provider]; n == 1 {
		envVar = provider + "_API_KEY"
	} else {
		envVar = fmt.Sprintf("%s_API_KEY_%d", provider, n)
	}
	a.mapping[dedupeKey] = envVar
	return envVar, apiKey
}
