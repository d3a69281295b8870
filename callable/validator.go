//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package callable

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// MatchPolicy selects which definition of the slot's function is validated.
type MatchPolicy int

const (
	// MatchFirst validates the first definition with the slot's name found
	// anywhere in the source, nested definitions included. Shallower
	// definitions win over deeper ones; at the same depth the earlier one
	// wins.
	MatchFirst MatchPolicy = iota
	// MatchUniqueTopLevel requires exactly one module-level definition.
	MatchUniqueTopLevel
)

// DefaultMaxSourceBytes bounds the size of a callable source.
const DefaultMaxSourceBytes = 256 << 10

const bodyIndent = "    "

type options struct {
	registry       *Registry
	policy         MatchPolicy
	typeHints      bool
	maxSourceBytes int
}

// Option configures a Validator.
type Option func(*options)

// WithRegistry sets the registry used by ValidateSlot.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithMatchPolicy sets how the slot's definition is located.
func WithMatchPolicy(p MatchPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithTypeHints controls whether slot type hints are prepended to bodies.
func WithTypeHints(enabled bool) Option {
	return func(o *options) {
		o.typeHints = enabled
	}
}

// WithMaxSourceBytes bounds the accepted source size. Zero or a negative
// value disables the check.
func WithMaxSourceBytes(n int) Option {
	return func(o *options) {
		o.maxSourceBytes = n
	}
}

// Validator checks callables against slots. It holds no mutable state and
// is safe for concurrent use.
type Validator struct {
	opts options
}

// NewValidator creates a validator backed by DefaultRegistry unless
// WithRegistry is given.
func NewValidator(opts ...Option) *Validator {
	o := options{
		policy:         MatchFirst,
		typeHints:      true,
		maxSourceBytes: DefaultMaxSourceBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	return &Validator{opts: o}
}

// Registry returns the slots this validator resolves names against.
func (v *Validator) Registry() *Registry {
	return v.opts.registry
}

// Policy returns the configured match policy.
func (v *Validator) Policy() MatchPolicy {
	return v.opts.policy
}

// Validated is a callable that satisfied its slot.
type Validated struct {
	// Slot is the name of the satisfied slot.
	Slot string `json:"slot"`
	// Name is the collision-free name the body is re-emitted under.
	Name string `json:"name"`
	// Params are the slot's parameter names.
	Params []string `json:"params"`
	// Body is the function body with its original indentation. It never
	// contains the def line.
	Body string `json:"body"`
}

// Method re-wraps the body under the renamed signature.
func (c *Validated) Method() string {
	return Method(c.Name, c.Params, c.Body)
}

// Signature describes one function definition found in a source.
type Signature struct {
	Name   string
	Params []string
	// Line is the 1-based line of the def keyword.
	Line     int
	TopLevel bool
}

// ValidateSlot looks the slot up by name and validates source against it.
func (v *Validator) ValidateSlot(ctx context.Context, source, slotName, suffix string) (*Validated, error) {
	slot, ok := v.opts.registry.Lookup(slotName)
	if !ok {
		return nil, fmt.Errorf("unknown callable slot %q", slotName)
	}
	return v.Validate(ctx, source, slot, suffix)
}

// Validate parses source, checks that it defines slot.Name with exactly the
// slot's parameters, and returns the body renamed with suffix.
func (v *Validator) Validate(ctx context.Context, source string, slot Slot, suffix string) (*Validated, error) {
	src, err := v.prepare(source)
	if err != nil {
		return nil, err
	}
	tree, src, padded, err := parseLenient(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	def, err := v.locate(tree.RootNode(), src, slot.Name)
	if err != nil {
		return nil, err
	}
	params := positionalParams(def.ChildByFieldName("parameters"), src)
	if len(params) != len(slot.Params) {
		return nil, &ArityError{Name: slot.Name, Expected: len(slot.Params), Actual: len(params)}
	}
	for i, want := range slot.Params {
		if params[i] != want {
			return nil, &ArgNameError{Name: slot.Name, Expected: want, Actual: params[i], Position: i}
		}
	}

	body := extractBody(def, src, padded)
	if v.opts.typeHints && slot.Hints != nil {
		body = leadingIndent(body) + slot.Hints.Comment() + "\n" + body
	}
	return &Validated{
		Slot:   slot.Name,
		Name:   RenamedName(slot.Name, suffix),
		Params: append([]string(nil), slot.Params...),
		Body:   body,
	}, nil
}

// Find returns the signature of the definition named name, located with the
// configured match policy. Parameter names are not checked.
func (v *Validator) Find(ctx context.Context, source, name string) (*Signature, error) {
	src, err := v.prepare(source)
	if err != nil {
		return nil, err
	}
	tree, src, _, err := parseLenient(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	def, err := v.locate(tree.RootNode(), src, name)
	if err != nil {
		return nil, err
	}
	return &Signature{
		Name:     name,
		Params:   positionalParams(def.ChildByFieldName("parameters"), src),
		Line:     int(def.StartPoint().Row) + 1,
		TopLevel: isTopLevel(def),
	}, nil
}

// RenamedName joins a slot name with the owning entity's resolved name.
func RenamedName(slotName, suffix string) string {
	if suffix == "" {
		return slotName
	}
	return slotName + "_" + suffix
}

func (v *Validator) prepare(source string) ([]byte, error) {
	if v.opts.maxSourceBytes > 0 && len(source) > v.opts.maxSourceBytes {
		return nil, &SyntaxError{
			Diagnostic: fmt.Sprintf("source is %d bytes, limit is %d", len(source), v.opts.maxSourceBytes),
		}
	}
	return []byte(strings.ReplaceAll(source, "\r\n", "\n")), nil
}

func (v *Validator) locate(root *sitter.Node, src []byte, name string) (*sitter.Node, error) {
	defs := collectDefinitions(root, src, name)
	if v.opts.policy == MatchUniqueTopLevel {
		top := defs[:0]
		for _, d := range defs {
			if isTopLevel(d) {
				top = append(top, d)
			}
		}
		defs = top
		if len(defs) > 1 {
			return nil, &DuplicateError{Name: name, Count: len(defs)}
		}
	}
	if len(defs) == 0 {
		return nil, &NotFoundError{Name: name}
	}
	return defs[0], nil
}

// parseLenient parses src with a pass statement inserted into every function
// body that holds only comments or blank lines. When the padded source does
// not parse, src is parsed as given. The returned rows are the inserted lines
// of the returned source.
func parseLenient(ctx context.Context, src []byte) (*sitter.Tree, []byte, map[int]bool, error) {
	if patched, padded := padEmptyDefs(string(src)); len(padded) > 0 {
		if tree, err := parse(ctx, []byte(patched)); err == nil {
			return tree, []byte(patched), padded, nil
		}
	}
	tree, err := parse(ctx, src)
	if err != nil {
		return nil, nil, nil, err
	}
	return tree, src, nil, nil
}

func parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse python: %w", err)
	}
	root := tree.RootNode()
	if !root.HasError() {
		return tree, nil
	}
	defer tree.Close()

	syntaxErr := &SyntaxError{Diagnostic: "invalid syntax"}
	if bad := firstError(root); bad != nil {
		row := int(bad.StartPoint().Row)
		syntaxErr.Line = row + 1
		syntaxErr.Column = int(bad.StartPoint().Column) + 1
		if bad.IsMissing() {
			syntaxErr.Diagnostic = fmt.Sprintf("missing %q", bad.Type())
		} else if text := strings.TrimSpace(bad.Content(src)); text != "" {
			syntaxErr.Diagnostic = fmt.Sprintf("unexpected %q", firstLine(text))
		}
		lines := strings.Split(string(src), "\n")
		if row < len(lines) {
			syntaxErr.Text = lines[row]
		}
	}
	return nil, syntaxErr
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

// collectDefinitions returns every function_definition named name, breadth
// first: outer definitions come before nested ones, then source order.
func collectDefinitions(root *sitter.Node, src []byte, name string) []*sitter.Node {
	var defs []*sitter.Node
	queue := []*sitter.Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "decorated_definition" {
				if d := child.ChildByFieldName("definition"); d != nil {
					child = d
				}
			}
			if child.Type() == "function_definition" {
				if id := child.ChildByFieldName("name"); id != nil && id.Content(src) == name {
					defs = append(defs, child)
				}
			}
			queue = append(queue, child)
		}
	}
	return defs
}

func isTopLevel(def *sitter.Node) bool {
	parent := def.Parent()
	if parent != nil && parent.Type() == "decorated_definition" {
		parent = parent.Parent()
	}
	return parent != nil && parent.Type() == "module"
}

// positionalParams mirrors what Python exposes as positional parameters:
// everything before the first *args, bare * or **kwargs. The / marker is
// skipped so positional-only parameters count.
func positionalParams(params *sitter.Node, src []byte) []string {
	if params == nil {
		return nil
	}
	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			names = append(names, p.Content(src))
		case "default_parameter", "typed_default_parameter":
			if id := p.ChildByFieldName("name"); id != nil {
				names = append(names, id.Content(src))
			}
		case "typed_parameter":
			id := p.NamedChild(0)
			if id == nil || id.Type() != "identifier" {
				return names
			}
			names = append(names, id.Content(src))
		case "list_splat_pattern", "dictionary_splat_pattern", "keyword_separator":
			return names
		}
	}
	return names
}

// extractBody returns the lines after the signature up to the end of the
// definition. A body written on the signature line is moved to its own line.
func extractBody(def *sitter.Node, src []byte, skip map[int]bool) string {
	block := def.ChildByFieldName("body")
	if block == nil {
		return ""
	}
	sigEnd := int(block.StartPoint().Row)
	for i := 0; i < int(def.ChildCount()); i++ {
		if c := def.Child(i); c.Type() == ":" {
			sigEnd = int(c.StartPoint().Row)
			break
		}
	}
	if !hasStatement(block) {
		lines := strings.Split(string(src), "\n")
		defIndent := indentWidth(lines[def.StartPoint().Row])
		var kept []string
		for row := sigEnd + 1; row < len(lines); row++ {
			t := strings.TrimSpace(lines[row])
			if t != "" && (!strings.HasPrefix(t, "#") || indentWidth(lines[row]) <= defIndent) {
				break
			}
			kept = append(kept, lines[row])
		}
		for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
			kept = kept[:len(kept)-1]
		}
		return strings.Join(kept, "\n")
	}
	if int(block.StartPoint().Row) == sigEnd {
		inline := strings.TrimRight(string(src[block.StartByte():block.EndByte()]), " \t\n")
		lines := strings.Split(inline, "\n")
		for i, l := range lines {
			lines[i] = bodyIndent + strings.TrimLeft(l, " \t")
		}
		return strings.Join(lines, "\n")
	}

	end := def.EndPoint()
	endRow := int(end.Row)
	if end.Column == 0 && endRow > sigEnd+1 {
		endRow--
	}
	lines := strings.Split(string(src), "\n")
	if endRow >= len(lines) {
		endRow = len(lines) - 1
	}
	kept := make([]string, 0, endRow-sigEnd)
	for row := sigEnd + 1; row <= endRow; row++ {
		if !skip[row] {
			kept = append(kept, lines[row])
		}
	}
	return trimTrailingBlank(strings.Join(kept, "\n"))
}

func hasStatement(block *sitter.Node) bool {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		if block.NamedChild(i).Type() != "comment" {
			return true
		}
	}
	return false
}

func trimTrailingBlank(body string) string {
	body = strings.TrimSuffix(body, "\n")
	if i := strings.LastIndexByte(body, '\n'); i >= 0 && strings.TrimSpace(body[i+1:]) == "" {
		return body[:i]
	}
	return body
}

func leadingIndent(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return bodyIndent
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
