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
	"fmt"
	"strconv"
	"strings"

	"trpc.group/trpc-go/trpc-agentflow-go/callable"
	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
)

var _ EntityExporter = (*AgentExporter)(nil)

const swarmImport = "from autogen import AFTER_WORK, ON_CONDITION, UPDATE_SYSTEM_MESSAGE, AfterWorkOption, SwarmAgent"

type agentClass struct {
	name string
	stmt string
}

var agentClasses = map[flow.AgentType]agentClass{
	flow.AgentUser:      {"UserProxyAgent", "from autogen import UserProxyAgent"},
	flow.AgentAssistant: {"AssistantAgent", "from autogen import AssistantAgent"},
	flow.AgentManager:   {"GroupChatManager", "from autogen import GroupChat, GroupChatManager"},
	flow.AgentSwarm:     {"SwarmAgent", swarmImport},
	flow.AgentReasoning: {"ReasoningAgent",
		"from autogen.agentchat.contrib.reasoning_agent import ReasoningAgent"},
	flow.AgentCaptain: {"CaptainAgent",
		"from autogen.agentchat.contrib.captainagent import CaptainAgent"},
	flow.AgentRAGUser: {"RetrieveUserProxyAgent",
		"from autogen.agentchat.contrib.retrieve_user_proxy_agent import RetrieveUserProxyAgent"},
}

// AgentExporter emits an agent's constructor and everything registered on
// it: tools, nested chats, handoffs and, for managers, the group chat.
type AgentExporter struct {
	scope *Scope
	agent *flow.Agent
}

// NewAgentExporter creates an exporter for a.
func NewAgentExporter(scope *Scope, a *flow.Agent) *AgentExporter {
	return &AgentExporter{scope: scope, agent: a}
}

// Kind implements EntityExporter.
func (e *AgentExporter) Kind() string { return KindAgent }

// agentBuild carries the state of one Export call.
type agentBuild struct {
	ctx    context.Context
	scope  *Scope
	agent  *flow.Agent
	name   string
	out    *EntityOutput
	suffix map[string]int
	// defined holds callable names already emitted by this agent.
	defined map[string]bool
}

// Export implements EntityExporter.
func (e *AgentExporter) Export(ctx context.Context) (*EntityOutput, error) {
	a := e.agent
	class, ok := agentClasses[a.Type]
	if !ok {
		return nil, fmt.Errorf("agent %q: unknown type %q", a.Name, a.Type)
	}
	x := &agentBuild{
		ctx:     ctx,
		scope:   e.scope,
		agent:   a,
		name:    e.scope.Names.Agent(a.ID),
		out:     &EntityOutput{},
		suffix:  make(map[string]int),
		defined: make(map[string]bool),
	}
	x.out.Entity = x.name
	x.out.AddImport(class.stmt, codegen.ThirdParty)

	callArgs, err := x.commonArgs()
	if err != nil {
		return nil, err
	}
	var extra args
	switch a.Type {
	case flow.AgentSwarm:
		extra, err = x.swarmArgs()
	case flow.AgentReasoning:
		extra = x.reasoningArgs()
	case flow.AgentCaptain:
		extra, err = x.captainArgs()
	case flow.AgentRAGUser:
		extra, err = x.retrieveArgs()
	}
	if err != nil {
		return nil, err
	}
	callArgs = append(callArgs, extra...)

	if a.Type == flow.AgentManager {
		if err := x.groupManager(callArgs); err != nil {
			return nil, err
		}
	} else {
		x.out.SetContent(x.name + " = " + pyCall(class.name, callArgs))
	}

	x.skillRegistrations()
	if err := x.nestedChats(); err != nil {
		return nil, err
	}
	if a.Type == flow.AgentSwarm {
		if err := x.handoffs(); err != nil {
			return nil, err
		}
	}
	return x.out, nil
}

func (x *agentBuild) entity() string {
	return "agent " + x.agent.Name
}

// callableSuffix returns the agent name for the first callable of a slot
// and numbered variants after that.
func (x *agentBuild) callableSuffix(slot string) string {
	n := x.suffix[slot]
	x.suffix[slot] = n + 1
	if n == 0 {
		return x.name
	}
	return x.name + "_" + strconv.Itoa(n)
}

// defineBefore validates source and emits the renamed function ahead of
// the agent. It returns the function name.
func (x *agentBuild) defineBefore(slot, source, suffix string) (string, error) {
	v, err := x.scope.validate(x.ctx, x.entity(), slot, source, suffix)
	if err != nil {
		return "", err
	}
	if !x.defined[v.Name] {
		x.defined[v.Name] = true
		x.out.AddBefore(method(v), codegen.EntityPosition(x.name, 0))
	}
	return v.Name, nil
}

func (x *agentBuild) commonArgs() (args, error) {
	a := x.agent
	var callArgs args
	callArgs.addStr("name", a.Name)
	callArgs.addStrIf("description", a.Description)
	callArgs.addStrIf("system_message", a.SystemMessage)

	mode := a.HumanInputMode
	if mode == "" {
		mode = "NEVER"
		if a.Type == flow.AgentUser || a.Type == flow.AgentRAGUser {
			mode = "ALWAYS"
		}
	}
	callArgs.addStr("human_input_mode", mode)
	if a.MaxConsecutiveAutoReply != nil {
		callArgs.add("max_consecutive_auto_reply", strconv.Itoa(*a.MaxConsecutiveAutoReply))
	}
	callArgs.addStrIf("default_auto_reply", a.DefaultAutoReply)
	callArgs.add("code_execution_config", x.codeExecution())

	term, err := x.termination()
	if err != nil {
		return nil, err
	}
	if term != "" {
		callArgs.add("is_termination_msg", term)
	}
	callArgs.add("llm_config", x.llmConfig())
	return callArgs, nil
}

func (x *agentBuild) codeExecution() string {
	ce := x.agent.CodeExecution
	if ce == nil {
		return "False"
	}
	executor := "LocalCommandLineCodeExecutor"
	if ce.UseDocker {
		executor = "DockerCommandLineCodeExecutor"
	}
	x.out.AddImport("from autogen.coding import "+executor, codegen.ThirdParty)

	var execArgs args
	workDir := ce.WorkDir
	if workDir == "" {
		workDir = "coding"
	}
	execArgs.addStr("work_dir", workDir)
	execArgs.addIntIf("timeout", ce.Timeout)
	if refs := x.scope.skillRefs(ce.Functions); len(refs) > 0 && !ce.UseDocker {
		execArgs.add("functions", pyBlockList(refs))
	}
	executorName := x.name + "_executor"
	x.out.AddBefore(executorName+" = "+pyCall(executor, execArgs), codegen.EntityPosition(x.name, 1))

	var cfg args
	cfg.add("executor", executorName)
	if ce.LastNMessages > 0 {
		cfg.add("last_n_messages", strconv.Itoa(ce.LastNMessages))
	}
	return pyDict(cfg)
}

func (x *agentBuild) termination() (string, error) {
	t := x.agent.Termination
	switch t.Type {
	case flow.TerminationKeyword:
		keywords := pyStrList(t.Keywords)
		switch t.Criterion {
		case flow.CriterionFound:
			return `lambda x: any(x.get("content", "") and keyword in x.get("content", "") for keyword in ` +
				keywords + ")", nil
		case flow.CriterionEnding:
			return `lambda x: any(x.get("content", "") and x.get("content", "").endswith(keyword) for keyword in ` +
				keywords + ")", nil
		default:
			return `lambda x: any(x.get("content", "") == keyword for keyword in ` + keywords + ")", nil
		}
	case flow.TerminationMethod:
		return x.defineBefore(callable.SlotIsTerminationMessage, t.MethodContent, x.name)
	default:
		return "", nil
	}
}

func (x *agentBuild) llmConfig() string {
	if len(x.agent.ModelIDs) == 0 {
		return "False"
	}
	configs := make([]string, 0, len(x.agent.ModelIDs))
	for _, id := range x.agent.ModelIDs {
		configs = append(configs, ConfigName(x.scope.Names, id))
	}
	var cfg args
	cfg.add("config_list", pyBlockList(configs))
	if seed := x.scope.Flow.CacheSeed; seed != nil {
		cfg.add("cache_seed", strconv.Itoa(*seed))
	} else {
		cfg.add("cache_seed", "None")
	}
	return pyDict(cfg)
}

func (x *agentBuild) skillRegistrations() {
	var blocks []string
	for _, as := range x.agent.Skills {
		s, ok := x.scope.Flow.Skill(as.ID)
		if !ok {
			continue
		}
		description := s.Description
		if description == "" {
			description = s.Name
		}
		var regArgs args
		regArgs.add("", x.scope.Names.Skill(s.ID))
		regArgs.add("caller", x.name)
		regArgs.add("executor", x.scope.Names.Agent(as.ExecutorID))
		regArgs.addStr("name", s.Name)
		regArgs.addStr("description", description)
		blocks = append(blocks, pyCall("register_function", regArgs))
	}
	if len(blocks) > 0 {
		x.out.AddImport("from autogen import register_function", codegen.ThirdParty)
		x.out.AddAfter(joinBlocks(blocks), codegen.AfterAllPosition(OrderSkillRegistrations))
	}
}

func (x *agentBuild) nestedChats() error {
	var blocks []string
	for i, nc := range x.agent.NestedChats {
		queue := x.name + "_chat_queue"
		if i > 0 {
			queue += "_" + strconv.Itoa(i)
		}
		entries := make([]string, 0, len(nc.Messages))
		for _, m := range nc.Messages {
			entry, err := x.nestedEntry(m.ChatID, m.IsReply)
			if err != nil {
				return err
			}
			if entry != "" {
				entries = append(entries, entry)
			}
		}
		if len(entries) == 0 {
			continue
		}
		triggers := make([]string, 0, len(nc.Triggers))
		for _, id := range nc.Triggers {
			triggers = append(triggers, x.scope.Names.Agent(id))
		}

		b := codegen.NewBuilder()
		b.Lines(queue + ": List[Dict[str, Any]] = " + pyBlockList(entries))
		b.Blank(1)
		var regArgs args
		regArgs.add("trigger", "["+strings.Join(triggers, ", ")+"]")
		regArgs.add("chat_queue", queue)
		if x.scope.Flow.IsAsync {
			regArgs.add("use_async", "True")
		}
		b.Lines(pyCall(x.name+".register_nested_chats", regArgs))
		blocks = append(blocks, b.String())
	}
	if len(blocks) > 0 {
		x.out.AddAfter(joinBlocks(blocks), codegen.AfterAllPosition(OrderNestedChats))
	}
	return nil
}

// nestedEntry renders one chat_queue dict. Message callables are emitted
// ahead of the agent.
func (x *agentBuild) nestedEntry(chatID string, isReply bool) (string, error) {
	c, ok := x.scope.Flow.Chat(chatID)
	if !ok {
		return "", nil
	}
	msg, slot := c.Nested.Message, callable.SlotNestedChatMessage
	if isReply {
		msg, slot = c.Nested.Reply, callable.SlotNestedChatReply
	}
	if msg.Type == "" {
		msg = c.Message
	}

	var entry args
	entry.add("recipient", x.scope.Names.Agent(c.Target))
	if c.Source != x.agent.ID {
		entry.add("sender", x.scope.Names.Agent(c.Source))
	}
	entry.addStrIf("summary_method", c.SummaryMethod)
	if c.MaxTurns != nil {
		entry.add("max_turns", strconv.Itoa(*c.MaxTurns))
	}
	switch msg.Type {
	case flow.MessageString:
		entry.addStr("message", msg.Content)
	case flow.MessageMethod:
		fn, err := x.defineBefore(slot, msg.Content, x.scope.Names.Chat(c.ID))
		if err != nil {
			return "", err
		}
		entry.add("message", fn)
	}
	return pyDict(entry), nil
}
