// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package audit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeWriter struct {
	mu         sync.Mutex
	syncCalls  []Entry
	asyncCalls []Entry
	syncErr    error
}

func (f *fakeWriter) WriteSync(_ context.Context, entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.syncErr != nil {
		return f.syncErr
	}
	f.syncCalls = append(f.syncCalls, entry)
	return nil
}

func (f *fakeWriter) WriteAsync(entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asyncCalls = append(f.asyncCalls, entry)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func (f *fakeWriter) syncCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.syncCalls)
}

func TestLoggerMinimalModeOnlyLogsFailuresAndTrips(t *testing.T) {
	w := &fakeWriter{}
	l := NewLogger(ModeMinimal, w, filepath.Join(t.TempDir(), "wal.jsonl"))
	defer func() { _ = l.Close() }()

	require.NoError(t, l.Log(context.Background(), Entry{RuleName: "ok", Success: true, ConditionResult: true}))
	require.NoError(t, l.Log(context.Background(), Entry{RuleName: "bad", Success: false}))
	require.NoError(t, l.Log(context.Background(), Entry{RuleName: "tripped", Success: true, CircuitBreakerTriggered: true}))

	require.Eventually(t, func() bool { return w.syncCount() == 2 }, time.Second, time.Millisecond)
}

func TestLoggerAllModeLogsAllowsAsync(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := &fakeWriter{}
	l := NewLogger(ModeAll, w, filepath.Join(t.TempDir(), "wal.jsonl"))

	require.NoError(t, l.Log(context.Background(), Entry{RuleName: "ok", Success: true, ConditionResult: true}))

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.asyncCalls) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, l.Close())
}

func TestLoggerFallsBackToWALOnWriterFailure(t *testing.T) {
	walPath := filepath.Join(t.TempDir(), "wal.jsonl")
	w := &fakeWriter{syncErr: errors.New("sink unavailable")}
	l := NewLogger(ModeMinimal, w, walPath)

	require.NoError(t, l.Log(context.Background(), Entry{RuleName: "bad", Success: false, Timestamp: time.Now()}))
	require.NoError(t, l.Close())

	replayWriter := &fakeWriter{}
	l2 := NewLogger(ModeMinimal, replayWriter, walPath)
	defer func() { _ = l2.Close() }()
	require.NoError(t, l2.ReplayWAL(context.Background()))
	require.Equal(t, 1, replayWriter.syncCount())
}
