// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package audit

import (
	"context"
	"log/slog"
)

// SlogWriter is the minimal structured-log Writer: every entry becomes
// one structured log line. Suitable for local/dev deployments where
// evaluation audit events are shipped downstream by the log collector
// rather than a dedicated audit store.
type SlogWriter struct {
	logger *slog.Logger
}

// NewSlogWriter builds a SlogWriter over logger, or slog.Default() if nil.
func NewSlogWriter(logger *slog.Logger) *SlogWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogWriter{logger: logger}
}

func (w *SlogWriter) WriteSync(_ context.Context, entry Entry) error {
	w.log(entry)
	return nil
}

func (w *SlogWriter) WriteAsync(entry Entry) error {
	w.log(entry)
	return nil
}

func (w *SlogWriter) Close() error { return nil }

func (w *SlogWriter) log(entry Entry) {
	w.logger.Info("rule evaluation",
		slog.String("rule_name", entry.RuleName),
		slog.Bool("success", entry.Success),
		slog.Bool("condition_result", entry.ConditionResult),
		slog.Bool("circuit_breaker_triggered", entry.CircuitBreakerTriggered),
		slog.String("error", entry.Error),
		slog.Int64("duration_us", entry.DurationUS),
		slog.Time("timestamp", entry.Timestamp),
	)
}
