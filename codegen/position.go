//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package codegen merges positioned code fragments from independent entity
// exporters into one deterministically ordered Python document.
package codegen

import "fmt"

// ImportPosition is the bucket an import line is emitted in.
type ImportPosition int

// Import buckets, in emission order.
const (
	Builtin ImportPosition = iota
	ThirdParty
	Local
)

var importPositionNames = [...]string{"builtin", "third_party", "local"}

func (p ImportPosition) String() string {
	if p.valid() {
		return importPositionNames[p]
	}
	return fmt.Sprintf("ImportPosition(%d)", int(p))
}

func (p ImportPosition) valid() bool {
	return p >= Builtin && p <= Local
}

// Anchor is what an AgentPosition is relative to.
type Anchor int

const (
	// AnchorEntity places a fragment next to one entity's main content.
	AnchorEntity Anchor = iota
	// BeforeAll places a fragment at the top of the body, after the imports.
	BeforeAll
	// AfterAll places a fragment at the very end of the document.
	AfterAll
)

func (a Anchor) String() string {
	switch a {
	case AnchorEntity:
		return "entity"
	case BeforeAll:
		return "before_all"
	case AfterAll:
		return "after_all"
	default:
		return fmt.Sprintf("Anchor(%d)", int(a))
	}
}

// AgentPosition locates a fragment relative to an anchor. Fragments sharing
// an anchor are emitted by ascending Order; equal orders keep append order.
type AgentPosition struct {
	Anchor Anchor
	// Entity is the resolved entity ID when Anchor is AnchorEntity.
	Entity string
	Order  int
}

// EntityPosition anchors a fragment to entity.
func EntityPosition(entity string, order int) AgentPosition {
	return AgentPosition{Anchor: AnchorEntity, Entity: entity, Order: order}
}

// BeforeAllPosition anchors a fragment to the top of the body.
func BeforeAllPosition(order int) AgentPosition {
	return AgentPosition{Anchor: BeforeAll, Order: order}
}

// AfterAllPosition anchors a fragment to the end of the document.
func AfterAllPosition(order int) AgentPosition {
	return AgentPosition{Anchor: AfterAll, Order: order}
}

func (p AgentPosition) String() string {
	if p.Anchor == AnchorEntity {
		return fmt.Sprintf("%s#%d", p.Entity, p.Order)
	}
	return fmt.Sprintf("%s#%d", p.Anchor, p.Order)
}

// Fragment is a unit of generated text and where it goes.
type Fragment struct {
	Text     string
	Position AgentPosition
}
