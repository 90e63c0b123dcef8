// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/fieldlineage/internal/cli/config"
	"github.com/leapstack-labs/fieldlineage/internal/cli/output"
	"github.com/leapstack-labs/fieldlineage/internal/testutil"
	"github.com/stretchr/testify/require"
)

// WriteSQLFiles writes name -> content pairs under a fresh temp directory
// and returns the directory. Names may contain slashes.
func WriteSQLFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

// TestConfig returns the default config with history stored in a temp dir.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.StatePath = filepath.Join(t.TempDir(), "history.db")
	return cfg
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// Context returns a context carrying cfg, tr and a test logger, the way the
// root command prepares it before running a subcommand.
func Context(t *testing.T, cfg *config.Config, tr *TestRenderer) context.Context {
	t.Helper()

	ctx := config.WithLogger(context.Background(), testutil.NewTestLogger(t))
	ctx = config.WithConfig(ctx, cfg)
	return output.WithRenderer(ctx, tr.Renderer)
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
