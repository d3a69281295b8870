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
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
)

// pylintDisabled are the checks generated scripts routinely trip.
var pylintDisabled = []string{
	"line-too-long",
	"unknown-option-value",
	"unused-argument",
	"unused-import",
	"invalid-name",
	"import-error",
	"inconsistent-quotes",
	"missing-function-docstring",
	"missing-param-doc",
	"missing-return-doc",
}

// baselineImports are present in every generated script.
var baselineImports = []codegen.Import{
	{Text: "import csv", Position: codegen.Builtin},
	{Text: "import json", Position: codegen.Builtin},
	{Text: "import os", Position: codegen.Builtin},
	{Text: "import sqlite3", Position: codegen.Builtin},
	{Text: "from dataclasses import asdict", Position: codegen.Builtin},
	{Text: "from pprint import pprint", Position: codegen.Builtin},
	{Text: "from typing import Any, Callable, Dict, List, Optional, Tuple, Union", Position: codegen.Builtin},
	{Text: "import autogen  # type: ignore", Position: codegen.ThirdParty},
	{Text: "from autogen import Agent, ChatResult, ConversableAgent, GroupChat, runtime_logging",
		Position: codegen.ThirdParty},
}

var logTables = []string{
	"chat_completions",
	"agents",
	"oai_wrappers",
	"oai_clients",
	"version",
	"events",
	"function_calls",
}

// header renders the lines above the imports.
func header(f *flow.Flow, fileName string) string {
	b := codegen.NewBuilder()
	b.Line("#!/usr/bin/env python")
	b.Line("# flake8: noqa E501")
	b.Line("# pylint: disable=" + strings.Join(pylintDisabled, ","))
	b.Line("# cspell: disable")
	b.Line("")

	name := f.Name
	if name == "" {
		name = fileName
	}
	b.Line(`"""` + docLine(name) + ".")
	b.Blank(1)
	if desc := markdownText(f.Description); desc != "" {
		b.Lines(docText(desc))
		b.Blank(1)
	}
	if len(f.Tags) > 0 {
		b.Line("Tags: " + docLine(strings.Join(f.Tags, ", ")))
		b.Blank(1)
	}
	if len(f.Requirements) > 0 {
		b.Line("Requirements: " + docLine(strings.Join(f.Requirements, ", ")))
		b.Blank(1)
	}
	b.Line("This file was generated by trpc-agentflow-go.")
	b.Line(`"""`)
	return b.String()
}

func docText(s string) string {
	return strings.ReplaceAll(s, `"""`, `\"\"\"`)
}

func docLine(s string) string {
	return strings.Join(strings.Fields(docText(s)), " ")
}

// markdownText renders Markdown as plain text: one line per paragraph,
// blank lines between blocks, code kept verbatim.
func markdownText(src string) string {
	source := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []string
	var buf bytes.Buffer
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			blocks = append(blocks, s)
		}
		buf.Reset()
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := n.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if !entering {
				flush()
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := v.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(source))
				}
				flush()
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if !entering {
				return ast.WalkContinue, nil
			}
			buf.Write(v.Segment.Value(source))
			if v.HardLineBreak() {
				buf.WriteByte('\n')
			} else if v.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			if entering {
				buf.Write(v.Value)
			}
		case *ast.CodeSpan:
			if entering {
				for c := v.FirstChild(); c != nil; c = c.NextSibling() {
					if t, ok := c.(*ast.Text); ok {
						buf.Write(t.Segment.Value(source))
					}
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()
	return strings.Join(blocks, "\n\n")
}

func loggingStart() string {
	var cfg args
	cfg.addStr("dbname", "flow.db")
	var callArgs args
	callArgs.addStr("logger_type", "sqlite")
	callArgs.add("config", pyDict(cfg))
	return pyCall("runtime_logging.start", callArgs)
}

func sqliteHelper() string {
	b := codegen.NewBuilder()
	b.Line("def get_sqlite_out(dbname: str, table: str, csv_file: str) -> None:")
	b.Indent()
	b.Line(`"""Convert a sqlite table to csv and json files."""`)
	b.Line("conn = sqlite3.connect(dbname)")
	b.Line(`query = f"SELECT * FROM {table}"  # nosec`)
	b.Line("try:")
	b.Indent().Line("cursor = conn.execute(query)").Dedent()
	b.Line("except sqlite3.OperationalError:")
	b.Indent().Line("conn.close()").Line("return").Dedent()
	b.Line("rows = cursor.fetchall()")
	b.Line("column_names = [description[0] for description in cursor.description]")
	b.Line("data = [dict(zip(column_names, row)) for row in rows]")
	b.Line("conn.close()")
	b.Line(`with open(csv_file, "w", newline="", encoding="utf-8") as file:`)
	b.Indent()
	b.Line("csv_writer = csv.DictWriter(file, fieldnames=column_names)")
	b.Line("csv_writer.writeheader()")
	b.Line("csv_writer.writerows(data)")
	b.Dedent()
	b.Line(`json_file = csv_file.replace(".csv", ".json")`)
	b.Line(`with open(json_file, "w", encoding="utf-8") as file:`)
	b.Indent().Line("json.dump(data, file, indent=4, ensure_ascii=False)").Dedent()
	return b.String()
}

// mainBlock wraps the chat call into main(), call_main() and the script
// guard.
func mainBlock(body string, isAsync bool) string {
	b := codegen.NewBuilder()
	def, await := "def", ""
	if isAsync {
		def, await = "async def", "await "
	}
	b.Line(def + " main() -> Union[ChatResult, List[ChatResult], Dict[int, ChatResult]]:")
	b.Indent()
	b.Line(`"""Start chatting."""`)
	b.Lines(body)
	b.Line("runtime_logging.stop()")
	b.Line(`if not os.path.exists("logs"):`)
	b.Indent().Line(`os.makedirs("logs")`).Dedent()
	b.Lines("for table in " + pyBlockList(quoteAll(logTables)) + ":")
	b.Indent()
	b.Line(`dest = os.path.join("logs", f"{table}.csv")`)
	b.Line(`get_sqlite_out("flow.db", table, dest)`)
	b.Dedent()
	b.Line("return results")
	b.Dedent()
	b.Blank(2)

	if isAsync {
		b.Line("async def call_main() -> None:")
	} else {
		b.Line("def call_main() -> None:")
	}
	b.Indent()
	b.Line(`"""Run the main function and print the results."""`)
	b.Line("results = " + await + "main()")
	b.Line("if isinstance(results, dict):")
	b.Indent().Line("results = list(results.values())").Dedent()
	b.Line("if not isinstance(results, list):")
	b.Indent().Line("results = [results]").Dedent()
	b.Line("for result in results:")
	b.Indent().Line("pprint(asdict(result))").Dedent()
	b.Dedent()
	b.Blank(2)

	b.Line(`if __name__ == "__main__":`)
	b.Indent()
	if isAsync {
		b.Line("anyio.run(call_main)")
	} else {
		b.Line("call_main()")
	}
	return b.String()
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = pyStr(s)
	}
	return out
}

// apiKeysModule renders {flow}_api_keys.py. Keys are read from the
// environment at run time.
func apiKeysModule(s *Scope) string {
	b := codegen.NewBuilder()
	b.Linef(`"""API keys of the %s models."""`, s.FlowName())
	b.Blank(1)
	b.Line("import os")
	b.Blank(2)

	var entries args
	for _, m := range s.Flow.Models {
		entries.addStr(s.Names.Model(m.ID), s.APIKeyEnv[m.ID])
	}
	b.Lines("__MODELS__ = " + pyDict(entries))
	b.Blank(2)
	b.Line("def " + s.APIKeyGetter() + "(model_name: str) -> str:")
	b.Indent()
	b.Line(`"""Get the api key of a model."""`)
	b.Line(`env_var = __MODELS__.get(model_name, "OPENAI_API_KEY")`)
	b.Line(`return os.environ.get(env_var, "")`)
	return b.String()
}

// dotEnv renders KEY=value lines sorted by key.
func dotEnv(envVars []codegen.EnvVar) string {
	sorted := make([]codegen.EnvVar, len(envVars))
	copy(sorted, envVars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	var b strings.Builder
	for _, e := range sorted {
		fmt.Fprintf(&b, "%s=%s\n", e.Key, pyStr(e.Value))
	}
	return b.String()
}
