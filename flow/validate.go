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
	"errors"
	"fmt"
	"slices"
)

var knownAgentTypes = []AgentType{
	AgentUser, AgentAssistant, AgentManager, AgentSwarm,
	AgentReasoning, AgentCaptain, AgentRAGUser,
}

var afterWorkOptions = []string{"TERMINATE", "REVERT_TO_USER", "STAY", "SWARM_MANAGER"}

// Validate checks that the flow is structurally sound: IDs are unique,
// every reference resolves and enumerations hold known values. It does not
// look inside callable sources. All problems are reported together.
func (f *Flow) Validate() error {
	var errs []error
	addf := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(f.Agents) == 0 {
		addf("flow %q has no agents", f.Name)
	}
	ids := make(map[string]string)
	claim := func(kind, id string) {
		if id == "" {
			addf("%s without id", kind)
			return
		}
		if prev, ok := ids[id]; ok {
			addf("duplicate id %q used by %s and %s", id, prev, kind)
			return
		}
		ids[id] = kind
	}
	for _, a := range f.Agents {
		claim("agent", a.ID)
	}
	for _, m := range f.Models {
		claim("model", m.ID)
	}
	for _, s := range f.Skills {
		claim("skill", s.ID)
	}
	for _, c := range f.Chats {
		claim("chat", c.ID)
	}

	agentRef := func(owner, id string) {
		if _, ok := f.Agent(id); !ok {
			addf("%s: unknown agent %q", owner, id)
		}
	}
	skillRef := func(owner, id string) {
		if _, ok := f.Skill(id); !ok {
			addf("%s: unknown skill %q", owner, id)
		}
	}
	chatRef := func(owner, id string) {
		if _, ok := f.Chat(id); !ok {
			addf("%s: unknown chat %q", owner, id)
		}
	}

	for _, a := range f.Agents {
		owner := fmt.Sprintf("agent %q", a.ID)
		if !slices.Contains(knownAgentTypes, a.Type) {
			addf("%s: unknown type %q", owner, a.Type)
		}
		for _, id := range a.ModelIDs {
			if _, ok := f.Model(id); !ok {
				addf("%s: unknown model %q", owner, id)
			}
		}
		for _, s := range a.Skills {
			skillRef(owner, s.ID)
			agentRef(owner, s.ExecutorID)
		}
		if a.CodeExecution != nil {
			for _, id := range a.CodeExecution.Functions {
				skillRef(owner, id)
			}
		}
		errs = append(errs, validateTermination(owner, a.Termination)...)
		for _, n := range a.NestedChats {
			for _, id := range n.Triggers {
				agentRef(owner, id)
			}
			for _, m := range n.Messages {
				chatRef(owner, m.ChatID)
			}
		}
		if a.Type == AgentManager {
			if a.GroupChat == nil || len(a.GroupChat.Members) == 0 {
				addf("%s: manager without group members", owner)
			} else {
				for _, id := range a.GroupChat.Members {
					agentRef(owner, id)
				}
				switch a.GroupChat.SpeakerSelection.Method {
				case "", SpeakerAuto, SpeakerManual, SpeakerRandom, SpeakerRoundRobin:
				case SpeakerCustom:
					if a.GroupChat.SpeakerSelection.CustomContent == "" {
						addf("%s: custom speaker selection without content", owner)
					}
				default:
					addf("%s: unknown speaker selection %q", owner, a.GroupChat.SpeakerSelection.Method)
				}
			}
		}
		if a.Swarm != nil {
			for _, id := range a.Swarm.Functions {
				skillRef(owner, id)
			}
			for _, h := range a.Swarm.Handoffs {
				errs = append(errs, f.validateHandoff(owner, h)...)
			}
		}
	}

	for _, c := range f.Chats {
		owner := fmt.Sprintf("chat %q", c.ID)
		agentRef(owner, c.Source)
		agentRef(owner, c.Target)
		for _, id := range c.Prerequisites {
			chatRef(owner, id)
		}
		switch c.Message.Type {
		case "", MessageNone, MessageString, MessageMethod, MessageRAGMessageGenerator:
		default:
			addf("%s: unknown message type %q", owner, c.Message.Type)
		}
		if c.Message.Type == MessageRAGMessageGenerator {
			if src, ok := f.Agent(c.Source); ok && src.Type != AgentRAGUser {
				addf("%s: rag_message_generator requires a rag_user source", owner)
			}
		}
		switch c.SummaryMethod {
		case "", SummaryLastMsg, SummaryReflection:
		default:
			addf("%s: unknown summary method %q", owner, c.SummaryMethod)
		}
	}

	for _, s := range f.Skills {
		if s.Name == "" {
			addf("skill %q without name", s.ID)
		}
		if s.Content == "" {
			addf("skill %q without content", s.ID)
		}
	}
	return errors.Join(errs...)
}

func validateTermination(owner string, t Termination) []error {
	var errs []error
	switch t.Type {
	case "", TerminationNone:
	case TerminationKeyword:
		if len(t.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("%s: keyword termination without keywords", owner))
		}
		switch t.Criterion {
		case "", CriterionFound, CriterionEnding, CriterionExact:
		default:
			errs = append(errs, fmt.Errorf("%s: unknown termination criterion %q", owner, t.Criterion))
		}
	case TerminationMethod:
		if t.MethodContent == "" {
			errs = append(errs, fmt.Errorf("%s: method termination without content", owner))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: unknown termination type %q", owner, t.Type))
	}
	return errs
}

func (f *Flow) validateHandoff(owner string, h Handoff) []error {
	var errs []error
	switch h.Kind {
	case HandoffOnCondition:
		if h.TargetIsNested {
			if _, ok := f.Chat(h.Target); !ok {
				errs = append(errs, fmt.Errorf("%s: handoff to unknown chat %q", owner, h.Target))
			}
		} else if _, ok := f.Agent(h.Target); !ok {
			errs = append(errs, fmt.Errorf("%s: handoff to unknown agent %q", owner, h.Target))
		}
		switch h.Available.Type {
		case "", "none", "string", "callable":
		default:
			errs = append(errs, fmt.Errorf("%s: unknown availability type %q", owner, h.Available.Type))
		}
	case HandoffAfterWork:
		switch h.AfterWork.Type {
		case "option":
			if !slices.Contains(afterWorkOptions, h.AfterWork.Value) {
				errs = append(errs, fmt.Errorf("%s: unknown after-work option %q", owner, h.AfterWork.Value))
			}
		case "agent":
			if _, ok := f.Agent(h.AfterWork.Value); !ok {
				errs = append(errs, fmt.Errorf("%s: after-work to unknown agent %q", owner, h.AfterWork.Value))
			}
		case "callable":
			if h.AfterWork.Value == "" {
				errs = append(errs, fmt.Errorf("%s: after-work callable without content", owner))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown after-work type %q", owner, h.AfterWork.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: unknown handoff kind %q", owner, h.Kind))
	}
	return errs
}
