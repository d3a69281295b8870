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
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-agentflow-go/callable"
	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
	itelemetry "trpc.group/trpc-go/trpc-agentflow-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-agentflow-go/log"
)

// CellMarker separates notebook cells in percent format.
const CellMarker = "# %%"

const releaseTimeout = 5 * time.Second

// ErrInvalidFlow marks flows rejected before any code is generated.
var ErrInvalidFlow = errors.New("invalid flow")

// Result is everything an export run produces. Files holds the script too,
// keyed by file name.
type Result struct {
	Name    string
	Script  string
	Files   map[string][]byte
	EnvVars []codegen.EnvVar
}

type options struct {
	notebook     bool
	validator    *callable.Validator
	poolSize     int
	strictOrders bool
}

// Option configures an Exporter.
type Option func(*options)

// WithNotebook separates sections with percent-format cell markers.
func WithNotebook(enabled bool) Option {
	return func(o *options) {
		o.notebook = enabled
	}
}

// WithValidator sets the callable validator. The default uses the default
// registry and the first-match policy.
func WithValidator(v *callable.Validator) Option {
	return func(o *options) {
		o.validator = v
	}
}

// WithPoolSize sets how many entity exporters run at once. A size of 1
// exports sequentially without a pool.
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithStrictOrders rejects global fragments of one entity that share an
// anchor and order.
func WithStrictOrders(strict bool) Option {
	return func(o *options) {
		o.strictOrders = strict
	}
}

// Exporter turns flows into AG2 programs. It is safe for concurrent use.
type Exporter struct {
	opts options
	pool *ants.PoolWithFunc
}

// New creates an Exporter. Close releases its worker pool.
func New(opts ...Option) (*Exporter, error) {
	o := options{poolSize: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.validator == nil {
		o.validator = callable.NewValidator()
	}
	e := &Exporter{opts: o}
	if o.poolSize > 1 {
		pool, err := createEntityExportPool(o.poolSize)
		if err != nil {
			return nil, err
		}
		e.pool = pool
	}
	return e, nil
}

// Close releases the worker pool and waits for its workers to exit.
func (e *Exporter) Close() error {
	if e.pool != nil {
		return e.pool.ReleaseTimeout(releaseTimeout)
	}
	return nil
}

// Validator returns the validator the exporter checks callables with.
func (e *Exporter) Validator() *callable.Validator {
	return e.opts.validator
}

// Export checks f and generates its program.
func (e *Exporter) Export(ctx context.Context, f *flow.Flow) (res *Result, err error) {
	ctx, span := itelemetry.Tracer.Start(ctx, itelemetry.SpanNameExport, trace.WithAttributes(
		attribute.String(itelemetry.KeyFlowName, f.Name),
		attribute.String(itelemetry.KeyFlowID, f.ID),
	))
	defer span.End()
	defer func() {
		itelemetry.IncExport(ctx, f.Name, err)
		if err != nil {
			itelemetry.TraceError(span, "export", err)
		}
	}()

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidFlow, f.Name, err)
	}
	scope := NewScope(f, e.opts.validator)
	exporters := entityExporters(scope)
	log.DebugfContext(ctx, "exporting flow %s with %d entity exporters", scope.FlowName(), len(exporters))

	results := exportAll(ctx, e.pool, exporters)
	var errs []error
	outputs := []codegen.Output{globalOutput(f)}
	files := make(map[string][]byte)
	var main string
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		outputs = append(outputs, r.out.Output)
		for name, data := range r.out.Files {
			files[name] = data
		}
		if r.out.Main != "" {
			main = r.out.Main
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	outputs[0].AddAfter(mainBlock(main, f.IsAsync), codegen.AfterAllPosition(OrderMain))

	script, err := e.assemble(ctx, scope, outputs)
	if err != nil {
		return nil, err
	}
	envVars := codegen.CollectEnvVars(outputs)
	name := scope.FlowName()
	files[name+".py"] = []byte(script)
	files[scope.APIKeysModule()+".py"] = []byte(apiKeysModule(scope))
	if len(envVars) > 0 {
		files[".env"] = []byte(dotEnv(envVars))
	}
	log.InfofContext(ctx, "exported flow %s: %d files, %d env vars", name, len(files), len(envVars))
	return &Result{Name: name, Script: script, Files: files, EnvVars: envVars}, nil
}

func (e *Exporter) assemble(ctx context.Context, scope *Scope, outputs []codegen.Output) (string, error) {
	_, span := itelemetry.Tracer.Start(ctx, itelemetry.SpanNameAssemble)
	defer span.End()

	opts := []codegen.AssemblerOption{
		codegen.WithHeader(header(scope.Flow, scope.FlowName())),
		codegen.WithBaselineImports(baselineImports...),
		codegen.WithStrictOrders(e.opts.strictOrders),
	}
	if e.opts.notebook {
		opts = append(opts, codegen.WithCellMarker(CellMarker))
	}
	script, err := codegen.NewAssembler(opts...).Assemble(outputs)
	if err != nil {
		itelemetry.TraceError(span, "assembly", err)
		return "", fmt.Errorf("assemble %s: %w", scope.FlowName(), err)
	}
	return script, nil
}

// entityExporters lists the exporters in declaration order: models,
// skills, agents, then chats.
func entityExporters(scope *Scope) []EntityExporter {
	f := scope.Flow
	exporters := make([]EntityExporter, 0, len(f.Models)+len(f.Skills)+len(f.Agents)+1)
	for i := range f.Models {
		exporters = append(exporters, NewModelExporter(scope, &f.Models[i]))
	}
	for i := range f.Skills {
		exporters = append(exporters, NewSkillExporter(scope, &f.Skills[i]))
	}
	for i := range f.Agents {
		exporters = append(exporters, NewAgentExporter(scope, &f.Agents[i]))
	}
	return append(exporters, NewChatsExporter(scope))
}

// globalOutput holds the blocks that belong to no entity.
func globalOutput(f *flow.Flow) codegen.Output {
	var out codegen.Output
	out.AddBefore(loggingStart(), codegen.BeforeAllPosition(OrderLoggingStart))
	out.AddBefore(sqliteHelper(), codegen.BeforeAllPosition(OrderSqliteHelper))
	if f.IsAsync {
		out.AddImport("import anyio", codegen.ThirdParty)
	}
	return out
}
