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
	"strings"

	"trpc.group/trpc-go/trpc-agentflow-go/callable"
	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
)

const defaultSwarmMaxRounds = 20

var _ EntityExporter = (*ChatsExporter)(nil)

// ChatsExporter builds the body of main(): the call that starts the
// conversation. It has no entity of its own.
type ChatsExporter struct {
	scope *Scope
	// messages are the callable message definitions of one Export call.
	messages []string
}

// NewChatsExporter creates the chat exporter of a flow.
func NewChatsExporter(scope *Scope) *ChatsExporter {
	return &ChatsExporter{scope: scope}
}

// Kind implements EntityExporter.
func (e *ChatsExporter) Kind() string { return KindChats }

// initiated returns the chats started from main(), sorted by order.
func initiated(f *flow.Flow) []*flow.Chat {
	var chats []*flow.Chat
	for i := range f.Chats {
		if f.Chats[i].Order >= 0 {
			chats = append(chats, &f.Chats[i])
		}
	}
	sort.SliceStable(chats, func(i, j int) bool { return chats[i].Order < chats[j].Order })
	return chats
}

// Export implements EntityExporter.
func (e *ChatsExporter) Export(ctx context.Context) (*EntityOutput, error) {
	out := &EntityOutput{}
	f := e.scope.Flow
	e.messages = nil

	if initial, ok := f.InitialSwarmAgent(); ok {
		out.Main = e.swarmChat(out, initial)
		return out, nil
	}

	chats := initiated(f)
	var err error
	switch len(chats) {
	case 0:
		out.Main = "results = []"
	case 1:
		out.Main, err = e.singleChat(ctx, out, chats[0])
	default:
		out.Main, err = e.sequentialChats(ctx, out, chats)
	}
	if err != nil {
		return nil, err
	}
	if len(e.messages) > 0 {
		out.AddAfter(joinBlocks(e.messages), codegen.AfterAllPosition(OrderCallableMessages))
	}
	return out, nil
}

func (e *ChatsExporter) awaitPrefix() (await, prefix string) {
	if e.scope.Flow.IsAsync {
		return "await ", "a_"
	}
	return "", ""
}

func (e *ChatsExporter) singleChat(ctx context.Context, out *EntityOutput, c *flow.Chat) (string, error) {
	var callArgs args
	callArgs.add("", e.scope.Names.Agent(c.Target))
	rest, err := e.chatArgs(ctx, out, c)
	if err != nil {
		return "", err
	}
	callArgs = append(callArgs, rest...)
	await, prefix := e.awaitPrefix()
	return "results = " + await + pyCall(e.scope.Names.Agent(c.Source)+"."+prefix+"initiate_chat", callArgs), nil
}

func (e *ChatsExporter) sequentialChats(ctx context.Context, out *EntityOutput, chats []*flow.Chat) (string, error) {
	await, prefix := e.awaitPrefix()
	out.AddImport("from autogen.agentchat import "+prefix+"initiate_chats", codegen.ThirdParty)

	index := make(map[string]int, len(chats))
	for i, c := range chats {
		index[c.ID] = i + 1
	}
	entries := make([]string, 0, len(chats))
	for i, c := range chats {
		var entry args
		if e.scope.Flow.IsAsync {
			entry.add("chat_id", strconv.Itoa(i+1))
			var prereq []string
			for _, id := range c.Prerequisites {
				if n, ok := index[id]; ok {
					prereq = append(prereq, strconv.Itoa(n))
				}
			}
			entry.add("prerequisites", "["+strings.Join(prereq, ", ")+"]")
		}
		entry.add("sender", e.scope.Names.Agent(c.Source))
		entry.add("recipient", e.scope.Names.Agent(c.Target))
		rest, err := e.chatArgs(ctx, out, c)
		if err != nil {
			return "", err
		}
		entry = append(entry, rest...)
		entries = append(entries, pyDict(entry))
	}
	var callArgs args
	callArgs.add("", pyBlockList(entries))
	return "results = " + await + pyCall(prefix+"initiate_chats", callArgs), nil
}

// chatArgs are the keyword arguments shared by initiate_chat and the dicts
// of initiate_chats.
func (e *ChatsExporter) chatArgs(ctx context.Context, out *EntityOutput, c *flow.Chat) (args, error) {
	var a args
	if c.SummaryMethod != "" {
		a.addStr("summary_method", c.SummaryMethod)
		if c.SummaryMethod == flow.SummaryReflection && c.SummaryPrompt != "" {
			var sa args
			sa.addStr("summary_prompt", c.SummaryPrompt)
			a.add("summary_args", pyDict(sa))
		}
	}
	if c.MaxTurns != nil {
		a.add("max_turns", strconv.Itoa(*c.MaxTurns))
	}
	if c.ClearHistory != nil {
		a.add("clear_history", pyBool(*c.ClearHistory))
	}
	if c.Silent {
		a.add("silent", "True")
	}
	switch c.Message.Type {
	case flow.MessageString:
		a.addStr("message", c.Message.Content)
	case flow.MessageMethod:
		v, err := e.scope.validate(ctx, "chat "+e.scope.Names.Chat(c.ID), callable.SlotCallableMessage,
			c.Message.Content, e.scope.Names.Chat(c.ID))
		if err != nil {
			return nil, err
		}
		e.messages = append(e.messages, method(v))
		a.add("message", v.Name)
	case flow.MessageRAGMessageGenerator:
		a.add("message", e.scope.Names.Agent(c.Source)+".message_generator")
		a.addStrIf("problem", c.Message.Content)
	}
	return a, nil
}

func (e *ChatsExporter) swarmChat(out *EntityOutput, initial *flow.Agent) string {
	f := e.scope.Flow
	var swarmAgents []string
	for i := range f.Agents {
		if f.Agents[i].Type == flow.AgentSwarm {
			swarmAgents = append(swarmAgents, e.scope.Names.Agent(f.Agents[i].ID))
		}
	}

	message := ""
	userAgent := "None"
	maxRounds := defaultSwarmMaxRounds
	for _, c := range initiated(f) {
		if c.Target != initial.ID {
			continue
		}
		message = c.Message.Content
		if c.MaxTurns != nil && *c.MaxTurns > 0 {
			maxRounds = *c.MaxTurns
		}
		if src, ok := f.Agent(c.Source); ok && src.Type == flow.AgentUser {
			userAgent = e.scope.Names.Agent(src.ID)
		}
		break
	}

	await, prefix := e.awaitPrefix()
	out.AddImport("from autogen import "+prefix+"initiate_swarm_chat", codegen.ThirdParty)
	out.AddImport(swarmImport, codegen.ThirdParty)

	var callArgs args
	callArgs.add("initial_agent", e.scope.Names.Agent(initial.ID))
	callArgs.add("agents", "["+strings.Join(swarmAgents, ", ")+"]")
	callArgs.addStr("messages", message)
	callArgs.add("context_variables", "{}")
	callArgs.add("user_agent", userAgent)
	callArgs.add("after_work", "AFTER_WORK(AfterWorkOption.TERMINATE)")
	callArgs.add("max_rounds", strconv.Itoa(maxRounds))
	return "results, _, __ = " + await + pyCall(prefix+"initiate_swarm_chat", callArgs)
}
