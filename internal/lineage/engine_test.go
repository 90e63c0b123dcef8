package lineage_test

import (
	"context"
	"testing"

	"github.com/leapstack-labs/fieldlineage/internal/lineage"
	"github.com/leapstack-labs/fieldlineage/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dep is the comparable shape of a FieldDependency used in expectations.
type dep struct {
	target     string
	alias      string
	table      string
	tableAlias string
	fields     []string
	expr       string
	aggregate  bool
}

func analyze(t *testing.T, sql, dbType string) *lineage.LineageResult {
	t.Helper()
	a := lineage.NewAnalyzer(lineage.WithLogger(testutil.NewTestLogger(t)))
	result := a.Analyze(context.Background(), sql, dbType)
	require.True(t, result.Success, "analysis failed: %s", result.Error)
	return result
}

func assertDeps(t *testing.T, want []dep, got []*lineage.FieldDependency) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		g := got[i]
		fields := w.fields
		if fields == nil {
			fields = []string{}
		}
		assert.Equal(t, w.target, g.TargetName, "dep %d target", i)
		assert.Equal(t, w.alias, g.TargetAlias, "dep %d target alias", i)
		assert.Equal(t, w.table, g.SourceTable, "dep %d source table", i)
		assert.Equal(t, w.tableAlias, g.SourceTableAlias, "dep %d source alias", i)
		assert.Equal(t, fields, g.SourceFields, "dep %d source fields", i)
		assert.Equal(t, w.expr, g.ExpressionText, "dep %d expression", i)
		assert.Equal(t, w.aggregate, g.IsAggregate, "dep %d aggregate", i)
	}
}

func TestEngine_Lineage(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		dbType string
		tables []string
		deps   []dep
	}{
		{
			name:   "plain columns",
			sql:    "SELECT id, name FROM users",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "users", fields: []string{"id"}},
				{target: "name", table: "users", tableAlias: "users", fields: []string{"name"}},
			},
		},
		{
			name:   "qualified columns",
			sql:    "SELECT u.id, u.name FROM users u",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "u", fields: []string{"id"}},
				{target: "name", table: "users", tableAlias: "u", fields: []string{"name"}},
			},
		},
		{
			name:   "qualifier case differs from alias",
			sql:    "SELECT U.id FROM users u",
			dbType: "postgresql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "U", fields: []string{"id"}},
			},
		},
		{
			name:   "column alias",
			sql:    "SELECT id AS user_id FROM users",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "user_id", alias: "user_id", table: "users", tableAlias: "users", fields: []string{"id"}},
			},
		},
		{
			name:   "count star",
			sql:    "SELECT COUNT(*) AS total FROM users",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "total", alias: "total", table: "users", tableAlias: "users", fields: []string{"*"}, expr: "COUNT(*)", aggregate: true},
			},
		},
		{
			name:   "aggregate over qualified column",
			sql:    "SELECT SUM(o.amount) AS total FROM orders o",
			dbType: "postgresql",
			tables: []string{"orders"},
			deps: []dep{
				{target: "total", alias: "total", table: "orders", tableAlias: "o", fields: []string{"amount"}, expr: "SUM(o.amount)", aggregate: true},
			},
		},
		{
			name:   "unaliased aggregate is named by its text",
			sql:    "SELECT COUNT(DISTINCT user_id) FROM orders",
			dbType: "mysql",
			tables: []string{"orders"},
			deps: []dep{
				{target: "COUNT(DISTINCT user_id)", table: "orders", tableAlias: "orders", fields: []string{"user_id"}, expr: "COUNT(DISTINCT user_id)", aggregate: true},
			},
		},
		{
			name:   "aggregate name is case insensitive",
			sql:    "SELECT max(price) AS highest FROM items",
			dbType: "oracle",
			tables: []string{"items"},
			deps: []dep{
				{target: "highest", alias: "highest", table: "items", tableAlias: "items", fields: []string{"price"}, expr: "max(price)", aggregate: true},
			},
		},
		{
			name:   "aggregate over expression keeps aggregate text",
			sql:    "SELECT SUM(price * qty) AS revenue FROM items",
			dbType: "mysql",
			tables: []string{"items"},
			deps: []dep{
				{target: "revenue", alias: "revenue", table: "items", tableAlias: "items", expr: "SUM(price * qty)", aggregate: true},
			},
		},
		{
			name:   "parenthesised aggregate",
			sql:    "SELECT (MAX(price)) AS m FROM items",
			dbType: "mysql",
			tables: []string{"items"},
			deps: []dep{
				{target: "m", alias: "m", table: "items", tableAlias: "items", fields: []string{"price"}, expr: "MAX(price)", aggregate: true},
			},
		},
		{
			name:   "dialect specific aggregate",
			sql:    "SELECT GROUP_CONCAT(name SEPARATOR ',') AS names FROM users",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "names", alias: "names", table: "users", tableAlias: "users", fields: []string{"name"}, expr: "GROUP_CONCAT(name SEPARATOR ',')", aggregate: true},
			},
		},
		{
			name:   "scalar function",
			sql:    "SELECT UPPER(name) AS n FROM users",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "n", alias: "n", table: "users", tableAlias: "users", expr: "UPPER(name)"},
			},
		},
		{
			name:   "arithmetic",
			sql:    "SELECT a + b FROM t",
			dbType: "hive",
			tables: []string{"t"},
			deps: []dep{
				{target: "a + b", table: "t", tableAlias: "t", expr: "a + b"},
			},
		},
		{
			name:   "cast",
			sql:    "SELECT CAST(id AS VARCHAR(10)) AS sid FROM users",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "sid", alias: "sid", table: "users", tableAlias: "users", expr: "CAST(id AS VARCHAR(10))"},
			},
		},
		{
			name:   "window call is not an aggregate",
			sql:    "SELECT COUNT(*) OVER (PARTITION BY dept) AS c FROM emp",
			dbType: "postgresql",
			tables: []string{"emp"},
			deps: []dep{
				{target: "c", alias: "c", table: "emp", tableAlias: "emp", expr: "COUNT(*) OVER (PARTITION BY dept)"},
			},
		},
		{
			name:   "ranking function",
			sql:    "SELECT ROW_NUMBER() OVER (PARTITION BY dept ORDER BY salary DESC) AS rn FROM emp",
			dbType: "oracle",
			tables: []string{"emp"},
			deps: []dep{
				{target: "rn", alias: "rn", table: "emp", tableAlias: "emp", expr: "ROW_NUMBER() OVER (PARTITION BY dept ORDER BY salary DESC)"},
			},
		},
		{
			name:   "literal without FROM",
			sql:    "SELECT 1",
			dbType: "mysql",
			tables: []string{},
			deps: []dep{
				{target: "1", expr: "1"},
			},
		},
		{
			name:   "star",
			sql:    "SELECT * FROM users",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "*", table: "users", tableAlias: "users", fields: []string{"*"}},
			},
		},
		{
			name:   "qualified star",
			sql:    "SELECT u.* FROM users u",
			dbType: "sqlserver",
			tables: []string{"users"},
			deps: []dep{
				{target: "*", table: "users", tableAlias: "u", fields: []string{"*"}},
			},
		},
		{
			name:   "schema qualified table",
			sql:    "SELECT id FROM sales.orders",
			dbType: "postgresql",
			tables: []string{"sales.orders"},
			deps: []dep{
				{target: "id", table: "sales.orders", tableAlias: "sales.orders", fields: []string{"id"}},
			},
		},
		{
			name:   "join",
			sql:    "SELECT u.name, o.amount FROM users u JOIN orders o ON u.id = o.user_id",
			dbType: "mysql",
			tables: []string{"users", "orders"},
			deps: []dep{
				{target: "name", table: "users", tableAlias: "u", fields: []string{"name"}},
				{target: "amount", table: "orders", tableAlias: "o", fields: []string{"amount"}},
			},
		},
		{
			name:   "unqualified column in join defaults to last table",
			sql:    "SELECT name FROM users u LEFT JOIN orders o ON u.id = o.user_id",
			dbType: "mysql",
			tables: []string{"users", "orders"},
			deps: []dep{
				{target: "name", table: "orders", tableAlias: "o", fields: []string{"name"}},
			},
		},
		{
			name:   "self join lists table once",
			sql:    "SELECT a.id, b.id AS parent FROM users a JOIN users b ON a.parent_id = b.id",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "a", fields: []string{"id"}},
				{target: "parent", alias: "parent", table: "users", tableAlias: "b", fields: []string{"id"}},
			},
		},
		{
			name:   "comma join",
			sql:    "SELECT u.id, o.id AS order_id FROM users u, orders o",
			dbType: "oracle",
			tables: []string{"users", "orders"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "u", fields: []string{"id"}},
				{target: "order_id", alias: "order_id", table: "orders", tableAlias: "o", fields: []string{"id"}},
			},
		},
		{
			name:   "derived table",
			sql:    "SELECT t.id FROM (SELECT id FROM users) t",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "t", tableAlias: "t", fields: []string{"id"}},
			},
		},
		{
			name:   "nested derived tables",
			sql:    "SELECT x.id FROM (SELECT y.id FROM (SELECT id FROM users) y) x",
			dbType: "postgresql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "x", tableAlias: "x", fields: []string{"id"}},
			},
		},
		{
			name: "join with derived table",
			sql: "SELECT u.id, t.total FROM users u " +
				"JOIN (SELECT user_id, SUM(amount) AS total FROM orders GROUP BY user_id) t ON u.id = t.user_id",
			dbType: "mysql",
			tables: []string{"users", "orders"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "u", fields: []string{"id"}},
				{target: "total", table: "t", tableAlias: "t", fields: []string{"total"}},
			},
		},
		{
			name:   "common table expression",
			sql:    "WITH recent AS (SELECT id, user_id FROM orders) SELECT r.user_id FROM recent r",
			dbType: "postgresql",
			tables: []string{"orders"},
			deps: []dep{
				{target: "user_id", table: "recent", tableAlias: "r", fields: []string{"user_id"}},
			},
		},
		{
			name:   "recursive cte does not list itself",
			sql:    "WITH RECURSIVE r AS (SELECT 1 AS n UNION ALL SELECT n + 1 FROM r WHERE n < 5) SELECT n FROM r",
			dbType: "postgresql",
			tables: []string{},
			deps: []dep{
				{target: "n", table: "r", tableAlias: "r", fields: []string{"n"}},
			},
		},
		{
			name:   "cte inside derived table does not hide outer table",
			sql:    "SELECT users.id FROM (WITH users AS (SELECT 1 AS id) SELECT id FROM users) x JOIN users ON users.id = x.id",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "users", fields: []string{"id"}},
			},
		},
		{
			name:   "later cte sees earlier one",
			sql:    "WITH a AS (SELECT id FROM orders), b AS (SELECT id FROM a) SELECT id FROM b",
			dbType: "postgresql",
			tables: []string{"orders"},
			deps: []dep{
				{target: "id", table: "b", tableAlias: "b", fields: []string{"id"}},
			},
		},
		{
			name:   "hex literal",
			sql:    "SELECT 0x1F FROM t",
			dbType: "mysql",
			tables: []string{"t"},
			deps: []dep{
				{target: "0x1F", table: "t", tableAlias: "t", expr: "0x1F"},
			},
		},
		{
			name:   "bind parameter in where",
			sql:    "SELECT u.id FROM users u WHERE u.id = ?",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "u", fields: []string{"id"}},
			},
		},
		{
			name:   "bind parameter in select list",
			sql:    "SELECT :flag AS flag, name FROM users",
			dbType: "oracle",
			tables: []string{"users"},
			deps: []dep{
				{target: "flag", alias: "flag", table: "users", tableAlias: "users", expr: ":flag"},
				{target: "name", table: "users", tableAlias: "users", fields: []string{"name"}},
			},
		},
		{
			name:   "json operator is an expression",
			sql:    "SELECT data->>'name' AS name FROM events",
			dbType: "postgresql",
			tables: []string{"events"},
			deps: []dep{
				{target: "name", alias: "name", table: "events", tableAlias: "events", expr: "data ->> 'name'"},
			},
		},
		{
			name:   "lateral view columns",
			sql:    "SELECT p.id, tag, tg.tag AS qualified FROM posts p LATERAL VIEW explode(p.tags) tg AS tag",
			dbType: "hive",
			tables: []string{"posts"},
			deps: []dep{
				{target: "id", table: "posts", tableAlias: "p", fields: []string{"id"}},
				{target: "tag", table: "posts", tableAlias: "p", fields: []string{"tag"}},
				{target: "qualified", alias: "qualified", table: "tg", tableAlias: "tg", fields: []string{"tag"}},
			},
		},
		{
			name:   "table hints",
			sql:    "SELECT u.id FROM users u WITH (NOLOCK) WHERE u.active = 1",
			dbType: "sqlserver",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "u", fields: []string{"id"}},
			},
		},
		{
			name:   "lateral subquery",
			sql:    "SELECT u.id, x.n FROM users u, LATERAL (SELECT COUNT(*) AS n FROM orders o WHERE o.user_id = u.id) x",
			dbType: "postgresql",
			tables: []string{"users", "orders"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "u", fields: []string{"id"}},
				{target: "n", table: "x", tableAlias: "x", fields: []string{"n"}},
			},
		},
		{
			name:   "locking clause",
			sql:    "SELECT id FROM accounts WHERE id = 1 FOR UPDATE",
			dbType: "mysql",
			tables: []string{"accounts"},
			deps: []dep{
				{target: "id", table: "accounts", tableAlias: "accounts", fields: []string{"id"}},
			},
		},
		{
			name:   "union contributes every branch",
			sql:    "SELECT id FROM a UNION ALL SELECT id FROM b",
			dbType: "hive",
			tables: []string{"a", "b"},
			deps: []dep{
				{target: "id", table: "a", tableAlias: "a", fields: []string{"id"}},
				{target: "id", table: "b", tableAlias: "b", fields: []string{"id"}},
			},
		},
		{
			name:   "where subquery is not followed",
			sql:    "SELECT id FROM users WHERE id IN (SELECT user_id FROM orders)",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "users", fields: []string{"id"}},
			},
		},
		{
			name:   "backtick quoted names",
			sql:    "SELECT `u`.`id` FROM `users` `u`",
			dbType: "mysql",
			tables: []string{"users"},
			deps: []dep{
				{target: "id", table: "users", tableAlias: "u", fields: []string{"id"}},
			},
		},
		{
			name:   "bracket quoted names",
			sql:    "SELECT TOP 10 [u].[id] FROM [dbo].[users] AS [u]",
			dbType: "sqlserver",
			tables: []string{"dbo.users"},
			deps: []dep{
				{target: "id", table: "dbo.users", tableAlias: "u", fields: []string{"id"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyze(t, tt.sql, tt.dbType)
			assert.Equal(t, tt.tables, result.Tables)
			assertDeps(t, tt.deps, result.FieldDependencies)
		})
	}
}

func TestEngine_TargetsFollowSelectOrder(t *testing.T) {
	result := analyze(t, "SELECT c, a, COUNT(*) AS n, b FROM t GROUP BY c, a, b", "mysql")

	targets := make([]string, 0, len(result.FieldDependencies))
	for _, d := range result.FieldDependencies {
		targets = append(targets, d.TargetName)
	}
	assert.Equal(t, []string{"c", "a", "n", "b"}, targets)
}

func TestEngine_Idempotent(t *testing.T) {
	sql := "SELECT u.name, COUNT(o.id) AS orders FROM users u JOIN orders o ON u.id = o.user_id GROUP BY u.name"
	a := lineage.NewAnalyzer(lineage.WithLogger(testutil.NewTestLogger(t)))

	first := a.Analyze(context.Background(), sql, "mysql")
	second := a.Analyze(context.Background(), sql, "mysql")

	require.True(t, first.Success)
	assert.Equal(t, first, second)
}

func TestEngine_RunsDoNotShareAliases(t *testing.T) {
	a := lineage.NewAnalyzer(lineage.WithLogger(testutil.NewTestLogger(t)))

	first := a.Analyze(context.Background(), "SELECT u.id FROM users u", "mysql")
	second := a.Analyze(context.Background(), "SELECT u.id FROM accounts x", "mysql")

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, "users", first.FieldDependencies[0].SourceTable)
	// u is not an alias in the second run, so it resolves to itself.
	assert.Equal(t, "u", second.FieldDependencies[0].SourceTable)
}

func TestEngine_SourceFieldsAreUnique(t *testing.T) {
	result := analyze(t, "SELECT COUNT(id, id) AS n FROM t", "mysql")

	require.Len(t, result.FieldDependencies, 1)
	assert.Equal(t, []string{"id"}, result.FieldDependencies[0].SourceFields)
}
