//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-agentflow-go/callable"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		slot   string
		suffix string
		unique bool
	)
	cmd := &cobra.Command{
		Use:   "validate --slot <name> <file>",
		Short: "Check a Python callable against a slot",
		Long: `Validate the callable in file (or stdin when file is "-") against the
named slot and print the function re-emitted under its final name.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []callable.Option
			if unique {
				opts = append(opts, callable.WithMatchPolicy(callable.MatchUniqueTopLevel))
			}
			v := callable.NewValidator(opts...)
			if _, ok := v.Registry().Lookup(slot); !ok {
				return usagef("unknown slot %q, see agentflow slots", slot)
			}
			source, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			res, err := v.ValidateSlot(cmd.Context(), source, slot, suffix)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.stdout, res.Method())
			return err
		},
	}
	cmd.Flags().StringVar(&slot, "slot", "", "Slot the callable must satisfy")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Suffix appended to the function name")
	cmd.Flags().BoolVar(&unique, "unique-callables", false, "Require exactly one top-level definition")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func (a *app) readSource(path string) (string, error) {
	if path == stdoutPath {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
