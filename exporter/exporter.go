//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package exporter turns a flow into a runnable AG2 Python program. Every
// model, skill and agent has its own exporter producing a codegen.Output;
// the Exporter runs them on a worker pool and assembles the results.
package exporter

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-agentflow-go/callable"
	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
	itelemetry "trpc.group/trpc-go/trpc-agentflow-go/internal/telemetry"
)

// Entity kinds, used as telemetry attributes.
const (
	KindModel = "model"
	KindSkill = "skill"
	KindAgent = "agent"
	KindChats = "chats"
)

// AfterAll orders of the deferred blocks. Lower orders come first.
const (
	OrderManagers           = 0
	OrderNestedChats        = 1
	OrderSkillRegistrations = 2
	OrderHandoffs           = 3
	OrderCallableMessages   = 4
	OrderMain               = 100
)

// BeforeAll orders.
const (
	OrderLoggingStart = 0
	OrderSqliteHelper = 1
)

// EntityExporter produces the output of one entity.
type EntityExporter interface {
	// Kind names the entity family.
	Kind() string
	// Export builds the output. It must not mutate shared state.
	Export(ctx context.Context) (*EntityOutput, error)
}

// EntityOutput is an exporter's document contribution plus the side files
// it needs written next to the script.
type EntityOutput struct {
	codegen.Output
	Files map[string][]byte
	// Main is the body of main(). Only the chat exporter sets it.
	Main string
}

func (o *EntityOutput) addFile(name string, data []byte) {
	if o.Files == nil {
		o.Files = make(map[string][]byte)
	}
	o.Files[name] = data
}

// CallableError wraps a validator error with the entity and slot it came
// from. errors.As reaches the underlying callable error.
type CallableError struct {
	Entity string
	Slot   string
	Err    error
}

func (e *CallableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Entity, e.Slot, e.Err)
}

// Unwrap returns the validator error.
func (e *CallableError) Unwrap() error { return e.Err }

// Scope is the read-only state every exporter of one run shares.
type Scope struct {
	Flow      *flow.Flow
	Names     *flow.Names
	Validator *callable.Validator
	// APIKeyEnv maps model ID to the environment variable holding its key.
	APIKeyEnv map[string]string
	// APIKeyValues maps environment variable to the literal key, if any.
	APIKeyValues map[string]string
}

// NewScope resolves names and allocates API key variables for f.
func NewScope(f *flow.Flow, v *callable.Validator) *Scope {
	if v == nil {
		v = callable.NewValidator()
	}
	s := &Scope{
		Flow:         f,
		Names:        flow.ResolveNames(f),
		Validator:    v,
		APIKeyEnv:    make(map[string]string, len(f.Models)),
		APIKeyValues: make(map[string]string),
	}
	alloc := newAPIKeyAllocator()
	for _, m := range f.Models {
		envVar, value := alloc.allocate(m.APIType, m.APIKey)
		s.APIKeyEnv[m.ID] = envVar
		if value != "" {
			if _, ok := s.APIKeyValues[envVar]; !ok {
				s.APIKeyValues[envVar] = value
			}
		}
	}
	return s
}

// FlowName is the identifier the generated files are named after.
func (s *Scope) FlowName() string {
	return s.Names.Flow
}

// APIKeysModule is the module exposing the key getter.
func (s *Scope) APIKeysModule() string {
	return s.FlowName() + "_api_keys"
}

// APIKeyGetter is the function generated model configs call.
func (s *Scope) APIKeyGetter() string {
	return "get_" + s.FlowName() + "_model_api_key"
}

// validate checks source against slot and renames it with suffix, inside
// a span. Failures are counted and wrapped in a CallableError.
func (s *Scope) validate(ctx context.Context, entity, slot, source, suffix string) (*callable.Validated, error) {
	ctx, span := itelemetry.Tracer.Start(ctx, itelemetry.SpanNameValidate, trace.WithAttributes(
		attribute.String(itelemetry.KeyEntity, entity),
		attribute.String(itelemetry.KeySlot, slot),
	))
	defer span.End()

	v, err := s.Validator.ValidateSlot(ctx, source, slot, suffix)
	if err != nil {
		kind := callable.Kind(err)
		itelemetry.IncValidationFailure(ctx, slot, kind)
		itelemetry.TraceError(span, kind, err)
		return nil, &CallableError{Entity: entity, Slot: slot, Err: err}
	}
	return v, nil
}

// defaultReturns is appended to bodies that hold no statement, so that the
// generated function still returns something the runtime accepts.
var defaultReturns = map[string]string{
	callable.SlotIsTerminationMessage:       "False",
	callable.SlotCallableMessage:            `""`,
	callable.SlotNestedChatMessage:          `""`,
	callable.SlotNestedChatReply:            `""`,
	callable.SlotCustomSpeakerSelection:     `"auto"`,
	callable.SlotCustomOnConditionAvailable: "True",
	callable.SlotCustomUpdateSystemMessage:  `""`,
}

// method renders a validated callable as a definition.
func method(v *callable.Validated) string {
	body := v.Body
	if !callable.HasStatements(body) {
		ret, ok := defaultReturns[v.Slot]
		if !ok {
			ret = "None"
		}
		indent := bodyIndent(body)
		if body != "" {
			body += "\n"
		}
		body += indent + "return " + ret
	}
	return callable.Method(v.Name, v.Params, body)
}

func bodyIndent(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimLeft(line, " \t"); trimmed != "" {
			return line[:len(line)-len(trimmed)]
		}
	}
	return "    "
}
