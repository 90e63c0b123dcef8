// Package testutil provides test utilities for structured logging.
package testutil

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return newLogger(testWriter{t})
}

// LogRecorder keeps every line written by a recording logger.
// It is safe for concurrent use.
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// String returns everything logged so far.
func (r *LogRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Contains reports whether any logged line contains substr.
func (r *LogRecorder) Contains(substr string) bool {
	return strings.Contains(r.String(), substr)
}

// NewRecordingLogger returns a logger that writes to t.Log() and to the
// returned recorder, so tests can assert on what was logged.
func NewRecordingLogger(t testing.TB) (*slog.Logger, *LogRecorder) {
	t.Helper()
	rec := &LogRecorder{}
	return newLogger(io.MultiWriter(testWriter{t}, rec)), rec
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
