// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/ruleforge/internal/observability"
)

type serveMetricsConfig struct {
	addr string
}

// NewServeMetricsCmd creates the serve-metrics subcommand: a standalone
// process that exposes the Prometheus counters/histograms every Engine
// and audit Logger instance in this process registers, for scraping by
// whatever runs alongside a long-lived batch-evaluation deployment.
func NewServeMetricsCmd() *cobra.Command {
	cfg := &serveMetricsConfig{}
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus metrics and health probes over HTTP",
		Long:  `Serve /metrics, /healthz/liveness, and /healthz/readiness until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeMetrics(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.addr, "addr", ":9090", "address to listen on")
	return cmd
}

func runServeMetrics(cmd *cobra.Command, cfg *serveMetricsConfig) error {
	srv := observability.NewServer(cfg.addr, nil)
	if err := srv.Start(); err != nil {
		return oops.Code("SERVE_METRICS_START_FAILED").Wrap(err)
	}
	cmd.Printf("serving metrics on %s\n", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	return srv.Stop(ctx)
}
