package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/fieldlineage/internal/cli"
	"github.com/leapstack-labs/fieldlineage/internal/lineage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchEntry struct {
	File      string                 `json:"file"`
	Statement int                    `json:"statement"`
	Result    *lineage.LineageResult `json:"result"`
}

func testdata(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	return path
}

func runBatch(t *testing.T, dbType, file string) []batchEntry {
	t.Helper()
	t.Chdir(t.TempDir())

	cmd := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--no-history", "-o", "json", "-d", dbType, "batch", file})
	require.NoError(t, cmd.Execute(), errOut.String())

	var entries []batchEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	return entries
}

func TestBatch_MySQLReports(t *testing.T) {
	entries := runBatch(t, "mysql", testdata(t, "mysql_reports.sql"))
	require.Len(t, entries, 3)

	revenue := entries[0].Result
	assert.Equal(t, []string{"customers", "orders"}, revenue.Tables)
	require.Len(t, revenue.FieldDependencies, 4)
	assert.Equal(t, "customer_name", revenue.FieldDependencies[1].TargetAlias)
	assert.Equal(t, "SUM(o.amount)", revenue.FieldDependencies[2].ExpressionText)
	assert.True(t, revenue.FieldDependencies[3].IsAggregate)

	latest := entries[1].Result
	assert.Equal(t, []string{"orders"}, latest.Tables)
	require.Len(t, latest.FieldDependencies, 2)
	assert.Equal(t, "t", latest.FieldDependencies[1].SourceTable)

	skus := entries[2].Result
	assert.Equal(t, []string{"products"}, skus.Tables)
	require.Len(t, skus.FieldDependencies, 2)
	assert.True(t, skus.FieldDependencies[0].IsAggregate)
	assert.Equal(t, []string{"sku"}, skus.FieldDependencies[0].SourceFields)
	assert.Equal(t, "category", skus.FieldDependencies[1].TargetName)
}

func TestBatch_PostgresCTE(t *testing.T) {
	entries := runBatch(t, "postgresql", testdata(t, "postgres_cte.sql"))
	require.Len(t, entries, 2)

	logins := entries[0].Result
	assert.Equal(t, []string{"users", "sessions"}, logins.Tables)
	require.Len(t, logins.FieldDependencies, 2)
	assert.Equal(t, "active", logins.FieldDependencies[0].SourceTable)
	assert.Equal(t, "COUNT(*)", logins.FieldDependencies[1].ExpressionText)

	ranked := entries[1].Result
	assert.Equal(t, []string{"players", "retired_players"}, ranked.Tables)
	require.Len(t, ranked.FieldDependencies, 4)
	assert.False(t, ranked.FieldDependencies[1].IsAggregate)
	assert.Equal(t, "player_rank", ranked.FieldDependencies[1].TargetAlias)
}
