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
	"strconv"

	"trpc.group/trpc-go/trpc-agentflow-go/callable"
	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
)

// groupManager defers the group chat and its manager to the end of the
// document, after every member exists.
func (x *agentBuild) groupManager(callArgs args) error {
	gc := x.agent.GroupChat
	if gc == nil {
		return fmt.Errorf("agent %q: manager without group chat", x.agent.Name)
	}
	members := make([]string, 0, len(gc.Members))
	for _, id := range gc.Members {
		members = append(members, x.scope.Names.Agent(id))
	}

	var chatArgs args
	chatArgs.add("agents", pyBlockList(members))
	chatArgs.add("enable_clear_history", pyBool(gc.EnableClearHistory))
	chatArgs.add("send_introductions", pyBool(gc.SendIntroductions))
	chatArgs.add("messages", "[]")
	if gc.MaxRound > 0 {
		chatArgs.add("max_round", strconv.Itoa(gc.MaxRound))
	}
	chatArgs.addStrIf("admin_name", gc.AdminName)

	selection := gc.SpeakerSelection.Method
	switch selection {
	case flow.SpeakerCustom:
		fn, err := x.defineBefore(callable.SlotCustomSpeakerSelection, gc.SpeakerSelection.CustomContent, x.name)
		if err != nil {
			return err
		}
		chatArgs.add("speaker_selection_method", fn)
	case "":
		chatArgs.addStr("speaker_selection_method", flow.SpeakerAuto)
	default:
		chatArgs.addStr("speaker_selection_method", selection)
	}
	if gc.AllowRepeatSpeaker != nil {
		chatArgs.add("allow_repeat_speaker", pyBool(*gc.AllowRepeatSpeaker))
	}

	groupChat := x.name + "_group_chat"
	callArgs = append(callArgs, arg{key: "groupchat", value: groupChat})

	b := codegen.NewBuilder()
	b.Lines(groupChat + " = " + pyCall("GroupChat", chatArgs))
	b.Blank(2)
	b.Lines(x.name + " = " + pyCall("GroupChatManager", callArgs))
	x.out.AddAfter(b.String(), codegen.AfterAllPosition(OrderManagers))
	return nil
}

func (x *agentBuild) swarmArgs() (args, error) {
	sw := x.agent.Swarm
	if sw == nil {
		sw = &flow.Swarm{}
	}
	var extra args
	extra.add("functions", pyBlockList(x.scope.skillRefs(sw.Functions)))

	if len(sw.UpdateSystemMessages) > 0 {
		updates := make([]string, 0, len(sw.UpdateSystemMessages))
		for _, u := range sw.UpdateSystemMessages {
			if u.Type == "callable" {
				fn, err := x.defineBefore(callable.SlotCustomUpdateSystemMessage, u.Content,
					x.callableSuffix(callable.SlotCustomUpdateSystemMessage))
				if err != nil {
					return nil, err
				}
				updates = append(updates, "UPDATE_SYSTEM_MESSAGE("+fn+")")
				continue
			}
			updates = append(updates, "UPDATE_SYSTEM_MESSAGE("+pyStr(u.Content)+")")
		}
		extra.add("update_agent_state_before_reply", pyBlockList(updates))
	}
	return extra, nil
}

// handoffs registers the swarm transitions once every agent exists.
func (x *agentBuild) handoffs() error {
	sw := x.agent.Swarm
	if sw == nil || len(sw.Handoffs) == 0 {
		return nil
	}
	hands := make([]string, 0, len(sw.Handoffs))
	for _, h := range sw.Handoffs {
		var (
			hand string
			err  error
		)
		switch h.Kind {
		case flow.HandoffOnCondition:
			hand, err = x.onCondition(h)
		case flow.HandoffAfterWork:
			hand, err = x.afterWork(h.AfterWork)
		default:
			err = fmt.Errorf("agent %q: unknown handoff kind %q", x.agent.Name, h.Kind)
		}
		if err != nil {
			return err
		}
		if hand != "" {
			hands = append(hands, hand)
		}
	}
	if len(hands) == 0 {
		return nil
	}
	var regArgs args
	regArgs.add("hand_to", pyBlockList(hands))
	x.out.AddAfter(pyCall(x.name+".register_hand_off", regArgs), codegen.AfterAllPosition(OrderHandoffs))
	return nil
}

func (x *agentBuild) onCondition(h flow.Handoff) (string, error) {
	var condArgs args
	if h.TargetIsNested {
		entry, err := x.nestedEntry(h.Target, false)
		if err != nil {
			return "", err
		}
		if entry == "" {
			return "", nil
		}
		var target args
		target.add("chat_queue", pyBlockList([]string{entry}))
		condArgs.add("target", pyDict(target))
	} else {
		condArgs.add("target", x.scope.Names.Agent(h.Target))
	}
	condArgs.addStr("condition", h.Condition)

	switch h.Available.Type {
	case "string":
		condArgs.addStrIf("available", h.Available.Value)
	case "callable":
		fn, err := x.defineBefore(callable.SlotCustomOnConditionAvailable, h.Available.Value,
			x.callableSuffix(callable.SlotCustomOnConditionAvailable))
		if err != nil {
			return "", err
		}
		condArgs.add("available", fn)
	}
	return pyCall("ON_CONDITION", condArgs), nil
}

func (x *agentBuild) afterWork(aw flow.AfterWork) (string, error) {
	switch aw.Type {
	case "agent":
		return "AFTER_WORK(" + x.scope.Names.Agent(aw.Value) + ")", nil
	case "callable":
		fn, err := x.defineBefore(callable.SlotCustomAfterWork, aw.Value,
			x.callableSuffix(callable.SlotCustomAfterWork))
		if err != nil {
			return "", err
		}
		return "AFTER_WORK(" + fn + ")", nil
	default:
		option := aw.Value
		if option == "" {
			option = "TERMINATE"
		}
		return "AFTER_WORK(AfterWorkOption." + option + ")", nil
	}
}
