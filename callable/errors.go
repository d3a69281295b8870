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
	"errors"
	"fmt"
)

// ErrContract matches every error reporting that a callable does not satisfy
// its slot: NotFoundError, ArityError, ArgNameError and DuplicateError.
var ErrContract = errors.New("callable does not satisfy its slot")

// ErrSyntax matches SyntaxError.
var ErrSyntax = errors.New("callable source is not valid python")

// SyntaxError reports source text that failed to parse.
type SyntaxError struct {
	// Diagnostic is the parser's description of the failure.
	Diagnostic string
	// Line and Column are 1-based and locate the first error node.
	Line   int
	Column int
	// Text is the offending source line.
	Text string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("invalid python: %s", e.Diagnostic)
	}
	return fmt.Sprintf("invalid python: %s at line %d, column %d: %q",
		e.Diagnostic, e.Line, e.Column, e.Text)
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// NotFoundError reports that no definition of the slot's function exists.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no function named %q found", e.Name)
}

// Is reports whether target is ErrContract.
func (e *NotFoundError) Is(target error) bool { return target == ErrContract }

// ArityError reports a parameter count mismatch.
type ArityError struct {
	Name     string
	Expected int
	Actual   int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("function %q must have %d argument(s), got %d",
		e.Name, e.Expected, e.Actual)
}

// Is reports whether target is ErrContract.
func (e *ArityError) Is(target error) bool { return target == ErrContract }

// ArgNameError reports the first parameter whose name differs from the slot.
type ArgNameError struct {
	Name     string
	Expected string
	Actual   string
	// Position is 0-based.
	Position int
}

func (e *ArgNameError) Error() string {
	return fmt.Sprintf("function %q argument %d must be named %q, got %q",
		e.Name, e.Position, e.Expected, e.Actual)
}

// Is reports whether target is ErrContract.
func (e *ArgNameError) Is(target error) bool { return target == ErrContract }

// DuplicateError reports more than one top-level definition of the slot's
// function. It is only returned under MatchUniqueTopLevel.
type DuplicateError struct {
	Name  string
	Count int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("function %q is defined %d times at module level, expected exactly one",
		e.Name, e.Count)
}

// Is reports whether target is ErrContract.
func (e *DuplicateError) Is(target error) bool { return target == ErrContract }

// Kind returns a short machine-readable name for a validation error,
// or "" when err is not one.
func Kind(err error) string {
	var (
		syntaxErr   *SyntaxError
		notFoundErr *NotFoundError
		arityErr    *ArityError
		argNameErr  *ArgNameError
		dupErr      *DuplicateError
	)
	switch {
	case errors.As(err, &syntaxErr):
		return "syntax"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &arityErr):
		return "arity"
	case errors.As(err, &argNameErr):
		return "arg_name"
	case errors.As(err, &dupErr):
		return "duplicate"
	default:
		return ""
	}
}
