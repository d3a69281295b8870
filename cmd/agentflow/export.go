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
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trpc.group/trpc-go/trpc-agentflow-go/artifact"
	"trpc.group/trpc-go/trpc-agentflow-go/artifact/archive"
	"trpc.group/trpc-go/trpc-agentflow-go/artifact/cos"
	"trpc.group/trpc-go/trpc-agentflow-go/artifact/local"
	"trpc.group/trpc-go/trpc-agentflow-go/callable"
	"trpc.group/trpc-go/trpc-agentflow-go/exporter"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
	"trpc.group/trpc-go/trpc-agentflow-go/log"
)

// stdoutPath makes the tar sink stream to stdout.
const stdoutPath = "-"

type exportFlags struct {
	out             string
	sink            string
	jobs            int
	poolSize        int
	notebook        bool
	strict          bool
	uniqueCallables bool
	failFast        bool
	bucketURL       string
	prefix          string
}

func newExportCmd(a *app) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export <pattern>...",
		Short: "Export the flows matching the given globs",
		Long: `Export every flow file matched by the patterns. Patterns are
doublestar globs, so flows/**/*.yaml walks a whole tree.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyExportFlags(cmd, &f)
			if err := a.cfg.validateExport(); err != nil {
				return &usageError{err: err}
			}
			paths, err := expandPatterns(args)
			if err != nil {
				return err
			}
			return a.export(cmd.Context(), paths)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.out, "out", "o", "out", `Output directory, or "-" for a tar on stdout`)
	flags.StringVar(&f.sink, "sink", sinkLocal, "Output sink: local, cos or tar")
	flags.IntVarP(&f.jobs, "jobs", "j", 4, "Flows exported at once")
	flags.IntVar(&f.poolSize, "pool-size", 0, "Entity exporters run at once per flow (default GOMAXPROCS)")
	flags.BoolVar(&f.notebook, "notebook", false, "Insert notebook cell markers")
	flags.BoolVar(&f.strict, "strict", false, "Reject fragments that share an anchor and order")
	flags.BoolVar(&f.uniqueCallables, "unique-callables", false, "Require exactly one top-level definition per callable")
	flags.BoolVar(&f.failFast, "fail-fast", false, "Stop at the first failing flow")
	flags.StringVar(&f.bucketURL, "cos-bucket", "", "COS bucket URL for the cos sink")
	flags.StringVar(&f.prefix, "cos-prefix", "", "Key prefix for the cos sink")
	return cmd
}

func (a *app) applyExportFlags(cmd *cobra.Command, f *exportFlags) {
	flags := cmd.Flags()
	e := &a.cfg.Export
	if flags.Changed("out") {
		e.Out = f.out
	}
	if flags.Changed("sink") {
		e.Sink = f.sink
	}
	if flags.Changed("jobs") {
		e.Jobs = f.jobs
	}
	if flags.Changed("pool-size") {
		e.PoolSize = f.poolSize
	}
	if flags.Changed("notebook") {
		e.Notebook = f.notebook
	}
	if flags.Changed("strict") {
		e.Strict = f.strict
	}
	if flags.Changed("unique-callables") {
		e.UniqueCallables = f.uniqueCallables
	}
	if flags.Changed("fail-fast") {
		e.FailFast = f.failFast
	}
	if flags.Changed("cos-bucket") {
		a.cfg.COS.BucketURL = f.bucketURL
	}
	if flags.Changed("cos-prefix") {
		a.cfg.COS.Prefix = f.prefix
	}
}

// expandPatterns resolves globs to a sorted, duplicate-free file list.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, usagef("invalid pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no flow files match %q", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// newExporter builds an exporter from the export configuration.
func (a *app) newExporter() (*exporter.Exporter, error) {
	e := a.cfg.Export
	opts := []exporter.Option{
		exporter.WithNotebook(e.Notebook),
		exporter.WithStrictOrders(e.Strict),
	}
	if e.PoolSize > 0 {
		opts = append(opts, exporter.WithPoolSize(e.PoolSize))
	}
	if e.UniqueCallables {
		opts = append(opts, exporter.WithValidator(
			callable.NewValidator(callable.WithMatchPolicy(callable.MatchUniqueTopLevel))))
	}
	return exporter.New(opts...)
}

func (a *app) newSink() (artifact.Writer, error) {
	e := a.cfg.Export
	switch e.Sink {
	case sinkCOS:
		return cos.NewWriter(a.cfg.COS.BucketURL, cos.WithPrefix(a.cfg.COS.Prefix))
	case sinkTar:
		if e.Out == stdoutPath {
			return &serialWriter{w: archive.NewStreamWriter(a.stdout)}, nil
		}
		return archive.NewWriter(e.Out), nil
	default:
		return local.NewWriter(e.Out), nil
	}
}

// serialWriter lets concurrent exports share a single stream.
type serialWriter struct {
	mu sync.Mutex
	w  artifact.Writer
}

func (s *serialWriter) Write(ctx context.Context, name string, files map[string][]byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(ctx, name, files)
}

// export runs one job per path. Failures are collected unless fail-fast
// is set, in which case the first one cancels the rest.
func (a *app) export(ctx context.Context, paths []string) error {
	exp, err := a.newExporter()
	if err != nil {
		return err
	}
	defer exp.Close()
	sink, err := a.newSink()
	if err != nil {
		return &usageError{err: err}
	}
	report := a.stdout
	if a.cfg.Export.Sink == sinkTar && a.cfg.Export.Out == stdoutPath {
		report = a.stderr
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Export.Jobs)
	for _, path := range paths {
		g.Go(func() error {
			loc, err := exportFile(ctx, exp, sink, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Errorf("export %s: %v", path, err)
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				if a.cfg.Export.FailFast {
					return err
				}
				return nil
			}
			fmt.Fprintf(report, "%s -> %s\n", path, loc)
			return nil
		})
	}
	_ = g.Wait()
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d flows failed: %w", len(errs), len(paths), errors.Join(errs...))
	}
	return nil
}

func exportFile(ctx context.Context, exp *exporter.Exporter, sink artifact.Writer, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := flow.NewParser().ParseFile(path)
	if err != nil {
		return "", err
	}
	res, err := exp.Export(ctx, f)
	if err != nil {
		return "", err
	}
	return sink.Write(ctx, res.Name, res.Files)
}
