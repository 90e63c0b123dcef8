package commands

import (
	"encoding/json"
	"testing"

	"github.com/leapstack-labs/fieldlineage/internal/cli/config"
	clitestutil "github.com/leapstack-labs/fieldlineage/internal/cli/testutil"
	"github.com/leapstack-labs/fieldlineage/internal/lineage"
	"github.com/leapstack-labs/fieldlineage/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedHistory records one run per statement and returns their IDs, oldest first.
func seedHistory(t *testing.T, cfg *config.Config, sqls ...string) []string {
	t.Helper()

	store, err := state.Open(cfg.StatePath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	analyzer := lineage.NewAnalyzer()
	ids := make([]string, 0, len(sqls))
	for _, sql := range sqls {
		run, err := store.SaveRun(t.Context(), analyzer.Analyze(t.Context(), sql, cfg.DBType))
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}
	return ids
}

func TestHistoryList(t *testing.T) {
	cfg := clitestutil.TestConfig(t)
	ids := seedHistory(t, cfg, "SELECT a FROM t", "SELECT b FROM u", "DROP TABLE t")

	t.Run("json", func(t *testing.T) {
		tr, err := execute(t, NewHistoryCommand(), cfg, "json", "", "list")
		require.NoError(t, err)

		var runs []*state.Run
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &runs))
		require.Len(t, runs, 3)
		assert.Equal(t, ids[2], runs[0].ID)
		assert.False(t, runs[0].Success)
		assert.Equal(t, []string{"u"}, runs[1].Tables)
	})

	t.Run("limit", func(t *testing.T) {
		tr, err := execute(t, NewHistoryCommand(), cfg, "json", "", "list", "-n", "1")
		require.NoError(t, err)

		var runs []*state.Run
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &runs))
		require.Len(t, runs, 1)
		assert.Equal(t, ids[2], runs[0].ID)
	})

	t.Run("csv", func(t *testing.T) {
		tr, err := execute(t, NewHistoryCommand(), cfg, "csv", "", "list")
		require.NoError(t, err)
		assert.Contains(t, tr.Output(), "ID,Created,DB Type,Status,Tables,Fields,SQL")
		assert.Contains(t, tr.Output(), ids[0])
		assert.Contains(t, tr.Output(), "failed")
	})

	t.Run("empty", func(t *testing.T) {
		tr, err := execute(t, NewHistoryCommand(), clitestutil.TestConfig(t), "markdown", "", "list")
		require.NoError(t, err)
		assert.Equal(t, "No runs recorded.\n", tr.Output())
	})
}

func TestHistoryShow(t *testing.T) {
	cfg := clitestutil.TestConfig(t)
	ids := seedHistory(t, cfg, "SELECT o.total FROM orders o")

	tr, err := execute(t, NewHistoryCommand(), cfg, "markdown", "", "show", ids[0])
	require.NoError(t, err)
	assert.Contains(t, tr.Output(), "## Run "+ids[0])
	assert.Contains(t, tr.Output(), "SELECT o.total FROM orders o")
	assert.Contains(t, tr.Output(), "orders (o)")

	tr, err = execute(t, NewHistoryCommand(), cfg, "yaml", "", "show", ids[0])
	require.NoError(t, err)
	assert.Contains(t, tr.Output(), "id: "+ids[0])
	assert.Contains(t, tr.Output(), "source_table: orders")

	_, err = execute(t, NewHistoryCommand(), cfg, "markdown", "", "show", "missing")
	require.ErrorIs(t, err, state.ErrRunNotFound)
}

func TestHistoryDeleteAndPrune(t *testing.T) {
	cfg := clitestutil.TestConfig(t)
	ids := seedHistory(t, cfg, "SELECT a FROM t", "SELECT b FROM t", "SELECT c FROM t", "SELECT d FROM t")

	tr, err := execute(t, NewHistoryCommand(), cfg, "markdown", "", "delete", ids[0])
	require.NoError(t, err)
	assert.Equal(t, "✓ Deleted run "+ids[0]+"\n", tr.Output())

	_, err = execute(t, NewHistoryCommand(), cfg, "markdown", "", "delete", ids[0])
	require.ErrorIs(t, err, state.ErrRunNotFound)

	tr, err = execute(t, NewHistoryCommand(), cfg, "markdown", "", "prune", "--keep", "1")
	require.NoError(t, err)
	assert.Equal(t, "✓ Removed 2 runs, kept at most 1\n", tr.Output())

	tr, err = execute(t, NewHistoryCommand(), cfg, "json", "", "list")
	require.NoError(t, err)
	var runs []*state.Run
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, ids[3], runs[0].ID)

	_, err = execute(t, NewHistoryCommand(), cfg, "markdown", "", "prune", "--keep", "-1")
	require.Error(t, err)
}
