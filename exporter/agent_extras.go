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
	"encoding/json"
	"fmt"
	"strconv"

	"trpc.group/trpc-go/trpc-agentflow-go/callable"
	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
)

const defaultCaptainModel = "gpt-4o"

func (x *agentBuild) reasoningArgs() args {
	r := x.agent.Reasoning
	var extra args
	if r == nil {
		return extra
	}
	extra.add("verbose", pyBool(r.Verbose))
	var cfg args
	cfg.addStrIf("method", r.Method)
	cfg.addIntIf("max_depth", r.MaxDepth)
	cfg.addIntIf("beam_size", r.BeamSize)
	cfg.addStrIf("answer_approach", r.AnswerApproach)
	extra.add("reason_config", pyDict(cfg))
	return extra
}

type captainLibEntry struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	SystemMessage string `json:"system_message"`
}

type captainModel struct {
	Model   string `json:"model"`
	APIType string `json:"api_type,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

func (x *agentBuild) captainArgs() (args, error) {
	c := x.agent.Captain
	var extra args
	x.out.AddImport("import os", codegen.Builtin)
	extra.add("agent_config_save_path", "os.getcwd()")
	if c == nil {
		return extra, nil
	}
	prefix := x.scope.FlowName() + "_" + x.name

	if len(c.AgentLib) > 0 {
		lib := make([]captainLibEntry, 0, len(c.AgentLib))
		for _, e := range c.AgentLib {
			lib = append(lib, captainLibEntry{Name: e.Name, Description: e.Description, SystemMessage: e.SystemMessage})
		}
		data, err := json.MarshalIndent(lib, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("agent %q: agent lib: %w", x.agent.Name, err)
		}
		libFile := prefix + "_agent_lib.json"
		x.out.addFile(libFile, append(data, '\n'))
		extra.addStr("agent_lib", libFile)
	}
	extra.addStrIf("tool_lib", c.ToolLib)

	// The builder reads its own config list; keys come from the environment.
	model := captainModel{Model: defaultCaptainModel}
	if len(x.agent.ModelIDs) > 0 {
		if m, ok := x.scope.Flow.Model(x.agent.ModelIDs[0]); ok {
			model = captainModel{Model: m.Name, APIType: m.APIType, BaseURL: m.BaseURL}
		}
	}
	data, err := json.MarshalIndent([]captainModel{model}, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("agent %q: captain config: %w", x.agent.Name, err)
	}
	configFile := prefix + "_llm_config.json"
	x.out.addFile(configFile, append(data, '\n'))

	var initCfg args
	initCfg.addStr("config_file_or_env", configFile)
	initCfg.addStr("builder_model", model.Model)
	initCfg.addStr("agent_model", model.Model)
	var groupCfg args
	if c.MaxRound > 0 {
		groupCfg.add("max_round", strconv.Itoa(c.MaxRound))
	}
	var nested args
	nested.add("autobuild_init_config", pyDict(initCfg))
	nested.add("group_chat_config", pyDict(groupCfg))
	nested.add("group_chat_llm_config", "None")
	if c.MaxTurns > 0 {
		nested.add("max_turns", strconv.Itoa(c.MaxTurns))
	}
	extra.add("nested_config", pyDict(nested))
	return extra, nil
}

func (x *agentBuild) retrieveArgs() (args, error) {
	r := x.agent.Retrieve
	var extra args
	if r == nil {
		return extra, nil
	}
	var cfg args
	task := r.Task
	if task == "" {
		task = "default"
	}
	cfg.addStr("task", task)
	if len(r.DocsPath) > 0 {
		cfg.add("docs_path", pyStrList(r.DocsPath))
	}
	cfg.addIntIf("chunk_token_size", r.ChunkTokenSize)
	cfg.addStrIf("model", r.Model)
	cfg.addStrIf("collection_name", r.Collection)
	cfg.add("get_or_create", pyBool(r.GetOrCreate))

	switch r.VectorDB {
	case "", "chroma":
		x.out.AddImport("import chromadb", codegen.ThirdParty)
		client := x.name + "_client"
		creator := "chromadb.Client()"
		if r.DBPath != "" {
			creator = "chromadb.PersistentClient(path=" + pyStr(r.DBPath) + ")"
		}
		x.out.AddBefore(client+" = "+creator, codegen.EntityPosition(x.name, 1))
		cfg.addStr("vector_db", "chroma")
		cfg.add("client", client)
	default:
		cfg.addStr("vector_db", r.VectorDB)
		if r.DBPath != "" {
			var db args
			db.addStr("connection_string", r.DBPath)
			cfg.add("db_config", pyDict(db))
		}
	}

	if r.EmbeddingFunction != "" {
		fn, err := x.defineBefore(callable.SlotCustomEmbeddingFunction, r.EmbeddingFunction, x.name)
		if err != nil {
			return nil, err
		}
		cfg.add("embedding_function", fn+"()")
	}
	if r.TokenCountFunction != "" {
		fn, err := x.defineBefore(callable.SlotCustomTokenCountFunction, r.TokenCountFunction, x.name)
		if err != nil {
			return nil, err
		}
		cfg.add("custom_token_count_function", fn)
	}
	if r.TextSplitFunction != "" {
		fn, err := x.defineBefore(callable.SlotCustomTextSplitFunction, r.TextSplitFunction, x.name)
		if err != nil {
			return nil, err
		}
		cfg.add("custom_text_split_function", fn)
	}
	extra.add("retrieve_config", pyDict(cfg))
	return extra, nil
}
