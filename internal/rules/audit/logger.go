// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package audit logs rule-set evaluation outcomes, grounded on the
// teacher's internal/access/policy/audit.Logger: a Mode-gated sink that
// writes synchronously for the outcomes operators care about immediately
// and asynchronously (buffered channel, best-effort) for the rest, with
// a JSONL write-ahead log as the fallback when the configured Writer
// itself fails, so an audit-sink outage never aborts an evaluation.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/oops"

	"github.com/holomush/ruleforge/internal/xdg"
)

// Mode controls which evaluation outcomes are logged, mirroring the
// teacher's ModeMinimal/ModeDenialsOnly/ModeAll audit-mode split,
// generalized from allow/deny effects to evaluation success/failure.
type Mode string

const (
	ModeMinimal  Mode = "minimal"   // evaluator errors and circuit-breaker trips only
	ModeFailures Mode = "failures"  // the above, plus unsuccessful condition_result
	ModeAll      Mode = "all"       // every evaluation
)

// Entry represents one rule-set evaluation to be logged.
type Entry struct {
	RuleName                string    `json:"rule_name"`
	Success                 bool      `json:"success"`
	ConditionResult         bool      `json:"condition_result"`
	CircuitBreakerTriggered bool      `json:"circuit_breaker_triggered"`
	Error                   string    `json:"error,omitempty"`
	DurationUS              int64     `json:"duration_us"`
	Timestamp               time.Time `json:"timestamp"`
}

// Writer is the interface for writing audit entries to a backend.
type Writer interface {
	WriteSync(ctx context.Context, entry Entry) error
	WriteAsync(entry Entry) error
	Close() error
}

var (
	channelFullCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruleforge_audit_channel_full_total",
		Help: "Total number of times the async audit channel was full",
	})
	failuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ruleforge_audit_failures_total",
		Help: "Total number of audit logging failures",
	}, []string{"reason"})
	walEntriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ruleforge_audit_wal_entries",
		Help: "Current number of entries in the audit write-ahead log",
	})
)

// Logger routes audit entries based on Mode and outcome.
type Logger struct {
	mode      Mode
	writer    Writer
	walPath   string
	walFile   *os.File
	walMu     sync.Mutex
	asyncChan chan Entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates a Logger with the given mode, writer, and WAL path.
func NewLogger(mode Mode, writer Writer, walPath string) *Logger {
	if walPath == "" {
		stateDir := xdg.StateDir()
		_ = xdg.EnsureDir(stateDir)
		walPath = filepath.Join(stateDir, "audit-wal.jsonl")
	}
	l := &Logger{
		mode:      mode,
		writer:    writer,
		walPath:   walPath,
		asyncChan: make(chan Entry, 1000),
		stopChan:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.asyncConsumer()
	return l
}

// Log routes entry according to the configured mode.
func (l *Logger) Log(ctx context.Context, entry Entry) error {
	shouldLog, useSync := l.shouldLog(entry)
	if !shouldLog {
		return nil
	}

	if useSync {
		if err := l.writer.WriteSync(ctx, entry); err != nil {
			if walErr := l.writeToWAL(entry); walErr != nil {
				slog.Error("audit write failed: both sink and WAL failed",
					"sink_error", err, "wal_error", walErr, "rule_name", entry.RuleName)
				failuresCounter.WithLabelValues("wal_failed").Inc()
			}
		}
		return nil
	}

	select {
	case l.asyncChan <- entry:
	default:
		channelFullCounter.Inc()
	}
	return nil
}

// shouldLog determines whether entry should be logged and whether the
// write should be synchronous.
func (l *Logger) shouldLog(entry Entry) (shouldLog, useSync bool) {
	notable := !entry.Success || entry.CircuitBreakerTriggered
	switch l.mode {
	case ModeMinimal:
		return notable, true
	case ModeFailures:
		if notable || !entry.ConditionResult {
			return true, true
		}
		return false, false
	case ModeAll:
		if notable {
			return true, true
		}
		return true, false
	default:
		return false, false
	}
}

func (l *Logger) asyncConsumer() {
	defer l.wg.Done()
	for {
		select {
		case entry := <-l.asyncChan:
			l.writeAsyncEntry(entry)
		case <-l.stopChan:
			l.drainAsync()
			return
		}
	}
}

func (l *Logger) writeAsyncEntry(entry Entry) {
	if err := l.writer.WriteAsync(entry); err != nil {
		slog.Error("async audit write failed", "error", err, "rule_name", entry.RuleName)
		failuresCounter.WithLabelValues("async_write_failed").Inc()
	}
}

func (l *Logger) drainAsync() {
	for {
		select {
		case entry := <-l.asyncChan:
			l.writeAsyncEntry(entry)
		default:
			return
		}
	}
}

// writeToWAL appends entry to the JSONL write-ahead log.
func (l *Logger) writeToWAL(entry Entry) error {
	l.walMu.Lock()
	defer l.walMu.Unlock()

	if l.walFile == nil {
		file, err := os.OpenFile(l.walPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY|os.O_SYNC, 0o600)
		if err != nil {
			return oops.With("path", l.walPath).Wrap(err)
		}
		l.walFile = file
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return oops.Wrap(err)
	}
	if _, err := fmt.Fprintf(l.walFile, "%s\n", data); err != nil {
		return oops.Wrap(err)
	}
	walEntriesGauge.Inc()
	return nil
}

// ReplayWAL reads every entry from the WAL and writes it through the
// sink, truncating the WAL on success.
func (l *Logger) ReplayWAL(ctx context.Context) error {
	l.walMu.Lock()
	defer l.walMu.Unlock()

	if _, err := os.Stat(l.walPath); os.IsNotExist(err) {
		return nil
	}
	data, err := os.ReadFile(l.walPath)
	if err != nil {
		return oops.With("path", l.walPath).Wrap(err)
	}
	if len(data) == 0 {
		return nil
	}

	replayed := 0
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			slog.Error("failed to unmarshal WAL entry", "error", err)
			failuresCounter.WithLabelValues("wal_unmarshal_failed").Inc()
			continue
		}
		if err := l.writer.WriteSync(ctx, entry); err != nil {
			slog.Error("failed to replay WAL entry", "error", err)
			failuresCounter.WithLabelValues("wal_replay_failed").Inc()
			continue
		}
		replayed++
	}

	if err := os.Truncate(l.walPath, 0); err != nil {
		return oops.With("path", l.walPath).Wrap(err)
	}
	walEntriesGauge.Set(0)
	slog.Info("replayed audit WAL entries", "count", replayed)
	return nil
}

// Close gracefully shuts down the logger.
func (l *Logger) Close() error {
	close(l.stopChan)
	l.wg.Wait()
	if err := l.writer.Close(); err != nil {
		return oops.Wrap(err)
	}
	l.walMu.Lock()
	defer l.walMu.Unlock()
	if l.walFile != nil {
		if err := l.walFile.Close(); err != nil {
			return oops.Wrap(err)
		}
		l.walFile = nil
	}
	return nil
}
