//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"trpc.group/trpc-go/trpc-agentflow-go/callable"
	"trpc.group/trpc-go/trpc-agentflow-go/codegen"
	"trpc.group/trpc-go/trpc-agentflow-go/exporter"
	"trpc.group/trpc-go/trpc-agentflow-go/flow"
	"trpc.group/trpc-go/trpc-agentflow-go/log"
)

// Error kinds reported next to the message. Callable contract failures use
// callable.Kind.
const (
	kindBadRequest  = "bad_request"
	kindTooLarge    = "too_large"
	kindInvalidFlow = "invalid_flow"
	kindUnknownSlot = "unknown_slot"
	kindAssembly    = "assembly"
	kindInternal    = "internal"

	kindMethodNotAllowed = "method_not_allowed"
)

type exportResponse struct {
	Name    string            `json:"name"`
	Script  string            `json:"script"`
	Files   map[string]string `json:"files"`
	EnvVars []codegen.EnvVar  `json:"envVars"`
}

type validateRequest struct {
	Source string `json:"source"`
	Slot   string `json:"slot"`
	Suffix string `json:"suffix"`
}

type validateResponse struct {
	Name   string `json:"name"`
	Body   string `json:"body"`
	Method string `json:"method"`
}

type slotResponse struct {
	callable.Slot
	Signature string `json:"signature"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readBody reads at most maxBodyBytes and reports a written error response
// when it fails.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, kindTooLarge,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		s.writeError(w, http.StatusBadRequest, kindBadRequest, err)
		return nil, false
	}
	return data, true
}

func requestFormat(r *http.Request) flow.Format {
	if strings.EqualFold(r.URL.Query().Get("format"), string(flow.FormatYAML)) {
		return flow.FormatYAML
	}
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return flow.FormatYAML
	}
	return flow.FormatJSON
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	f, err := flow.NewParser().ParseFormat(data, requestFormat(r))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, kindBadRequest, err)
		return
	}
	log.InfofContext(ctx, "export request for flow %q", f.Name)

	res, err := s.exporter.Export(ctx, f)
	if err != nil {
		status, kind := exportStatus(err)
		log.WarnfContext(ctx, "export of %q failed: %v", f.Name, err)
		s.writeError(w, status, kind, err)
		return
	}
	files := make(map[string]string, len(res.Files))
	for name, content := range res.Files {
		files[name] = string(content)
	}
	envVars := res.EnvVars
	if envVars == nil {
		envVars = []codegen.EnvVar{}
	}
	s.writeJSON(w, http.StatusOK, exportResponse{
		Name:    res.Name,
		Script:  res.Script,
		Files:   files,
		EnvVars: envVars,
	})
}

func exportStatus(err error) (int, string) {
	if errors.Is(err, exporter.ErrInvalidFlow) {
		return http.StatusUnprocessableEntity, kindInvalidFlow
	}
	if kind := callable.Kind(err); kind != "" {
		return http.StatusUnprocessableEntity, kind
	}
	if errors.Is(err, codegen.ErrAssembly) {
		return http.StatusUnprocessableEntity, kindAssembly
	}
	return http.StatusInternalServerError, kindInternal
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req validateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, kindBadRequest, err)
		return
	}
	v := s.exporter.Validator()
	if _, ok := v.Registry().Lookup(req.Slot); !ok {
		s.writeError(w, http.StatusNotFound, kindUnknownSlot, fmt.Errorf("unknown callable slot %q", req.Slot))
		return
	}
	res, err := v.ValidateSlot(r.Context(), req.Source, req.Slot, req.Suffix)
	if err != nil {
		kind := callable.Kind(err)
		if kind == "" {
			s.writeError(w, http.StatusBadRequest, kindBadRequest, err)
			return
		}
		s.writeError(w, http.StatusUnprocessableEntity, kind, err)
		return
	}
	s.writeJSON(w, http.StatusOK, validateResponse{Name: res.Name, Body: res.Body, Method: res.Method()})
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	slots := s.exporter.Validator().Registry().Slots()
	out := make([]slotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotResponse{Slot: slot, Signature: slot.Signature()})
	}
	s.writeJSON(w, http.StatusOK, out)
}
