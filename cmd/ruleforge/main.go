// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package main is the entry point for the ruleforge CLI.
package main

import (
	"log/slog"
	"os"

	"github.com/holomush/ruleforge/internal/logging"
	"github.com/holomush/ruleforge/pkg/errutil"
)

var version = "dev"

func main() {
	logging.SetDefault("ruleforge", version, os.Getenv("RULEFORGE_LOG_FORMAT"))

	if err := NewRootCmd().Execute(); err != nil {
		errutil.LogError(slog.Default(), "ruleforge failed", err)
		os.Exit(1)
	}
}
