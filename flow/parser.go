//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a flow document.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parser parses flow documents.
type Parser struct {
	// Strict mode rejects unknown fields.
	Strict bool
}

// NewParser creates a new flow parser.
func NewParser() *Parser {
	return &Parser{
		Strict: false,
	}
}

// NewStrictParser creates a new parser with strict mode enabled.
func NewStrictParser() *Parser {
	return &Parser{
		Strict: true,
	}
}

// Parse parses a JSON document into a Flow.
func (p *Parser) Parse(data []byte) (*Flow, error) {
	return p.ParseFormat(data, FormatJSON)
}

// ParseFormat parses data in the given format into a Flow.
func (p *Parser) ParseFormat(data []byte, format Format) (*Flow, error) {
	var f Flow
	switch format {
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(p.Strict)
		if err := decoder.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse flow: %w", err)
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		if p.Strict {
			decoder.DisallowUnknownFields()
		}
		if err := decoder.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse flow: %w", err)
		}
	}
	assignIDs(&f)
	return &f, nil
}

// ParseFile parses a JSON or YAML file into a Flow.
func (p *Parser) ParseFile(filename string) (*Flow, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	f, err := p.ParseFormat(data, FormatFromPath(filename))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return f, nil
}

// ParseString parses a JSON string into a Flow.
func (p *Parser) ParseString(jsonStr string) (*Flow, error) {
	return p.Parse([]byte(jsonStr))
}

// ToJSON serializes a flow with two-space indentation.
func ToJSON(f *Flow) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// assignIDs fills missing IDs. Chats without an ID get a positional one so
// references stay readable; every other entity gets a random UUID.
func assignIDs(f *Flow) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	for i := range f.Agents {
		if f.Agents[i].ID == "" {
			f.Agents[i].ID = uuid.NewString()
		}
	}
	for i := range f.Models {
		if f.Models[i].ID == "" {
			f.Models[i].ID = uuid.NewString()
		}
	}
	for i := range f.Skills {
		if f.Skills[i].ID == "" {
			f.Skills[i].ID = uuid.NewString()
		}
	}
	for i := range f.Chats {
		if f.Chats[i].ID == "" {
			f.Chats[i].ID = fmt.Sprintf("chat_%d", i)
		}
	}
}
