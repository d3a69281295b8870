//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package codegen

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAssembly matches every AssemblyError.
var ErrAssembly = errors.New("assembly failed")

// AssemblyError reports inconsistent exporter output. It indicates a defect
// in the caller and no partial document is produced.
type AssemblyError struct {
	// Entity is the output that contributed the offending fragment.
	Entity   string
	Position AgentPosition
	Reason   string
}

func (e *AssemblyError) Error() string {
	who := e.Entity
	if who == "" {
		who = "<global>"
	}
	return fmt.Sprintf("assemble: fragment %s from %s: %s", e.Position, who, e.Reason)
}

// Is reports whether target is ErrAssembly.
func (e *AssemblyError) Is(target error) bool { return target == ErrAssembly }

type assemblerOptions struct {
	header       string
	baseline     []Import
	rules        []UmbrellaRule
	blockSpacing int
	cellMarker   string
	strictOrders bool
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*assemblerOptions)

// WithHeader sets text emitted above the imports.
func WithHeader(text string) AssemblerOption {
	return func(o *assemblerOptions) {
		o.header = text
	}
}

// WithBaselineImports sets imports every document carries.
func WithBaselineImports(imports ...Import) AssemblerOption {
	return func(o *assemblerOptions) {
		o.baseline = append([]Import(nil), imports...)
	}
}

// WithUmbrellaRules replaces the umbrella import policy table.
func WithUmbrellaRules(rules ...UmbrellaRule) AssemblerOption {
	return func(o *assemblerOptions) {
		o.rules = append([]UmbrellaRule(nil), rules...)
	}
}

// WithBlockSpacing sets the number of blank lines between body blocks.
func WithBlockSpacing(n int) AssemblerOption {
	return func(o *assemblerOptions) {
		o.blockSpacing = n
	}
}

// WithCellMarker emits marker on its own line before the imports and before
// every body block, e.g. "# %%" for percent-format notebooks.
func WithCellMarker(marker string) AssemblerOption {
	return func(o *assemblerOptions) {
		o.cellMarker = marker
	}
}

// WithStrictOrders rejects two global fragments from the same entity that
// share an anchor and an order.
func WithStrictOrders(strict bool) AssemblerOption {
	return func(o *assemblerOptions) {
		o.strictOrders = strict
	}
}

// Assembler linearizes exporter outputs into one document. It is immutable;
// every Assemble call owns its own buffer.
type Assembler struct {
	opts assemblerOptions
}

// NewAssembler creates an assembler using DefaultUmbrellaRules unless
// WithUmbrellaRules is given.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	o := assemblerOptions{
		rules:        DefaultUmbrellaRules(),
		blockSpacing: MaxBlankLines,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Assembler{opts: o}
}

type placed struct {
	Fragment
	seq int
}

type plan struct {
	beforeAll []placed
	afterAll  []placed
	before    map[string][]placed
	after     map[string][]placed
}

// Assemble merges outputs, whose order is the declaration order, into one
// document:
//
//	header
//	imports (baseline + pooled)
//	BeforeAll fragments
//	per entity: Before fragments, content, After fragments
//	AfterAll fragments
//
// Fragments sharing an anchor are sorted by Order, ties keeping the order in
// which outputs and their fragments were given.
func (a *Assembler) Assemble(outputs []Output) (string, error) {
	p, err := a.plan(outputs)
	if err != nil {
		return "", err
	}

	b := NewBuilder()
	if h := strings.Trim(a.opts.header, "\n"); h != "" {
		b.Lines(h)
		b.Blank(1)
	}
	if a.opts.cellMarker != "" {
		b.Line(a.opts.cellMarker)
	}
	b.Lines(a.Imports(outputs))
	b.Blank(1)

	for _, f := range p.beforeAll {
		a.block(b, f.Text)
	}
	for _, o := range outputs {
		if o.Entity == "" {
			continue
		}
		for _, f := range p.before[o.Entity] {
			a.block(b, f.Text)
		}
		if o.Content != nil {
			a.block(b, *o.Content)
		}
		for _, f := range p.after[o.Entity] {
			a.block(b, f.Text)
		}
	}
	for _, f := range p.afterAll {
		a.block(b, f.Text)
	}
	return b.String(), nil
}

// Imports returns the consolidated import section for outputs.
func (a *Assembler) Imports(outputs []Output) string {
	all := append([]Import(nil), a.opts.baseline...)
	for _, o := range outputs {
		all = append(all, o.Imports...)
	}
	return ImportBlock(all, a.opts.rules)
}

func (a *Assembler) block(b *Builder, text string) {
	text = strings.Trim(text, "\n")
	if strings.TrimSpace(text) == "" {
		return
	}
	if a.opts.cellMarker != "" {
		b.Line(a.opts.cellMarker)
	}
	b.Lines(text)
	b.Blank(a.opts.blockSpacing)
}

func (a *Assembler) plan(outputs []Output) (*plan, error) {
	known := make(map[string]bool, len(outputs))
	for _, o := range outputs {
		if o.Entity == "" {
			if o.Content != nil {
				return nil, &AssemblyError{Reason: "content without entity"}
			}
			continue
		}
		if known[o.Entity] {
			return nil, &AssemblyError{
				Entity: o.Entity,
				Reason: "entity declared more than once",
			}
		}
		known[o.Entity] = true
	}

	p := &plan{
		before: make(map[string][]placed),
		after:  make(map[string][]placed),
	}
	type globalKey struct {
		entity string
		anchor Anchor
		order  int
	}
	claimed := make(map[globalKey]bool)
	seq := 0
	for _, o := range outputs {
		for i, list := range [][]Fragment{o.Before, o.After} {
			isAfter := i == 1
			for _, f := range list {
				seq++
				pos := f.Position
				switch pos.Anchor {
				case BeforeAll, AfterAll:
					if pos.Entity != "" {
						return nil, &AssemblyError{Entity: o.Entity, Position: pos,
							Reason: "global anchor must not name an entity"}
					}
					if a.opts.strictOrders {
						k := globalKey{entity: o.Entity, anchor: pos.Anchor, order: pos.Order}
						if claimed[k] {
							return nil, &AssemblyError{Entity: o.Entity, Position: pos,
								Reason: "global anchor and order already claimed by this entity"}
						}
						claimed[k] = true
					}
					if pos.Anchor == BeforeAll {
						p.beforeAll = append(p.beforeAll, placed{f, seq})
					} else {
						p.afterAll = append(p.afterAll, placed{f, seq})
					}
				case AnchorEntity:
					if o.Entity == "" {
						return nil, &AssemblyError{Position: pos,
							Reason: "output without entity may only use global anchors"}
					}
					if !known[pos.Entity] {
						return nil, &AssemblyError{Entity: o.Entity, Position: pos,
							Reason: fmt.Sprintf("anchor %q is not a declared entity", pos.Entity)}
					}
					if isAfter {
						p.after[pos.Entity] = append(p.after[pos.Entity], placed{f, seq})
					} else {
						p.before[pos.Entity] = append(p.before[pos.Entity], placed{f, seq})
					}
				default:
					return nil, &AssemblyError{Entity: o.Entity, Position: pos,
						Reason: "unknown anchor"}
				}
			}
		}
	}

	sortPlaced(p.beforeAll)
	sortPlaced(p.afterAll)
	for _, list := range p.before {
		sortPlaced(list)
	}
	for _, list := range p.after {
		sortPlaced(list)
	}
	return p, nil
}

func sortPlaced(list []placed) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Position.Order != list[j].Position.Order {
			return list[i].Position.Order < list[j].Position.Order
		}
		return list[i].seq < list[j].seq
	})
}
