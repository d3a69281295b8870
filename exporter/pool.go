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
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	itelemetry "trpc.group/trpc-go/trpc-agentflow-go/internal/telemetry"
)

type entityResult struct {
	out *EntityOutput
	err error
}

type entityExportParam struct {
	idx      int
	ctx      context.Context
	exporter EntityExporter
	results  []entityResult
	wg       *sync.WaitGroup
}

func (p *entityExportParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.exporter = nil
	p.results = nil
	p.wg = nil
}

var entityExportParamPool = &sync.Pool{
	New: func() any { return new(entityExportParam) },
}

func createEntityExportPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*entityExportParam)
		if !ok {
			panic("entity export pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			entityExportParamPool.Put(param)
		}()
		param.results[param.idx] = exportEntity(param.ctx, param.exporter)
	})
	if err != nil {
		return nil, fmt.Errorf("create entity export pool: %w", err)
	}
	return pool, nil
}

func exportEntity(ctx context.Context, e EntityExporter) (res entityResult) {
	ctx, span := itelemetry.Tracer.Start(ctx, itelemetry.SpanNameEntity, trace.WithAttributes(
		attribute.String(itelemetry.KeyEntityKind, e.Kind()),
	))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			res = entityResult{err: fmt.Errorf("%s exporter panicked: %v", e.Kind(), r)}
		}
	}()

	out, err := e.Export(ctx)
	if err != nil {
		itelemetry.TraceError(span, e.Kind(), err)
		return entityResult{err: err}
	}
	span.SetAttributes(
		attribute.String(itelemetry.KeyEntity, out.Entity),
		attribute.Int(itelemetry.KeyFragmentCount, out.FragmentCount()),
	)
	itelemetry.AddFragments(ctx, e.Kind(), out.FragmentCount())
	return entityResult{out: out}
}

// exportAll runs every exporter and returns the results by index. Without a
// pool the exporters run in the calling goroutine.
func exportAll(ctx context.Context, pool *ants.PoolWithFunc, exporters []EntityExporter) []entityResult {
	results := make([]entityResult, len(exporters))
	if pool == nil {
		for i, e := range exporters {
			results[i] = exportEntity(ctx, e)
		}
		return results
	}
	var wg sync.WaitGroup
	for idx, e := range exporters {
		wg.Add(1)
		param := entityExportParamPool.Get().(*entityExportParam)
		param.idx = idx
		param.ctx = ctx
		param.exporter = e
		param.results = results
		param.wg = &wg
		if err := pool.Invoke(param); err != nil {
			wg.Done()
			param.reset()
			entityExportParamPool.Put(param)
			results[idx] = entityResult{err: fmt.Errorf("schedule %s exporter: %w", e.Kind(), err)}
		}
	}
	wg.Wait()
	return results
}
