package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/fieldlineage/internal/cli/commands"
	"github.com/leapstack-labs/fieldlineage/internal/lineage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_Subcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"analyze", "batch", "format", "dialects", "history", "repl", "watch", "version", "completion"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "db-type", "output", "state", "verbose", "no-history", "concurrency"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRoot_Analyze(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := runRoot(t, "--no-history", "-o", "json", "-d", "pg",
		"analyze", `SELECT "o"."id", SUM(o.total) AS revenue FROM "shop"."orders" o GROUP BY o.id`)
	require.NoError(t, err)

	var result lineage.LineageResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "postgresql", result.DBType)
	assert.Equal(t, []string{"shop.orders"}, result.Tables)
	require.Len(t, result.FieldDependencies, 2)
	assert.Equal(t, "SUM(o.total)", result.FieldDependencies[1].ExpressionText)
	assert.NoDirExists(t, ".fieldlineage")
}

func TestRoot_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fieldlineage.yaml"),
		[]byte("db_type: sqlserver\noutput: json\nhistory: false\n"), 0o600))

	out, _, err := runRoot(t, "analyze", "SELECT TOP 5 [id] FROM [users]")
	require.NoError(t, err)

	var result lineage.LineageResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success, result.Error)
	assert.Equal(t, "sqlserver", result.DBType)
	assert.Equal(t, []string{"users"}, result.Tables)
}

func TestRoot_RecordsHistoryByDefault(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, _, err := runRoot(t, "-o", "csv", "analyze", "SELECT a FROM t")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ".fieldlineage", "history.db"))

	out, _, err := runRoot(t, "-o", "json", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"sql": "SELECT a FROM t"`)
}

func TestRoot_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unsupported db type", args: []string{"-d", "db2", "analyze", "SELECT 1"}, wantErr: "invalid db_type"},
		{name: "unknown output", args: []string{"-o", "pdf", "dialects"}, wantErr: `invalid output "pdf"`},
		{name: "bad concurrency", args: []string{"--concurrency", "-1", "dialects"}, wantErr: "concurrency must be positive"},
		{name: "missing config", args: []string{"--config", "nope.yaml", "dialects"}, wantErr: "error reading config file"},
		{name: "unknown command", args: []string{"lint"}, wantErr: "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runRoot(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("failed analysis", func(t *testing.T) {
		out, _, err := runRoot(t, "--no-history", "-o", "markdown", "analyze", "INSERT INTO t VALUES (1)")
		require.ErrorIs(t, err, commands.ErrAnalysisFailed)
		assert.Equal(t, "error: Only SELECT statements are supported\n", out)
	})
}

func TestRoot_VersionAndCompletion(t *testing.T) {
	out, _, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fieldlineage v"+Version)

	out, _, err = runRoot(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "fieldlineage "+Version)

	out, _, err = runRoot(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "fieldlineage")

	_, _, err = runRoot(t, "completion", "tcsh")
	assert.Error(t, err)
}
