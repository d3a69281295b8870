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
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-agentflow-go/log"
	"trpc.group/trpc-go/trpc-agentflow-go/server"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export API over HTTP",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			ln, err := net.Listen("tcp", a.cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr, err)
			}
			return a.serve(cmd.Context(), ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

// serve runs the API on ln until ctx is done, then shuts down gracefully.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	exp, err := a.newExporter()
	if err != nil {
		ln.Close()
		return err
	}
	defer exp.Close()

	var opts []server.Option
	if a.cfg.Server.MaxBodyBytes > 0 {
		opts = append(opts, server.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes))
	}
	if len(a.cfg.Server.AllowedOrigins) > 0 {
		opts = append(opts, server.WithAllowedOrigins(a.cfg.Server.AllowedOrigins...))
	}
	srv := &http.Server{
		Handler:           server.New(exp, opts...).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Infof("serving on %s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Infof("server stopped")
	return nil
}
