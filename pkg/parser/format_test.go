package parser_test

import (
	"testing"

	"github.com/leapstack-labs/fieldlineage/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "keywords upper-cased",
			sql:  "select a as x from t where b = 1",
			want: "SELECT a AS x FROM t WHERE b = 1",
		},
		{
			name: "joins",
			sql:  "select * from a left join b on a.id = b.id, c natural join d",
			want: "SELECT * FROM a LEFT JOIN b ON a.id = b.id, c NATURAL JOIN d",
		},
		{
			name: "derived table",
			sql:  "select s.x from (select a x from t) s",
			want: "SELECT s.x FROM (SELECT a AS x FROM t) AS s",
		},
		{
			name: "with and union",
			sql:  "with c as (select 1 as n) select n from c union all select 2",
			want: "WITH c AS (SELECT 1 AS n) SELECT n FROM c UNION ALL SELECT 2",
		},
		{
			name: "group order limit",
			sql:  "select d, count(*) from t group by d having count(*) > 1 order by d desc limit 5",
			want: "SELECT d, count(*) FROM t GROUP BY d HAVING count(*) > 1 ORDER BY d DESC LIMIT 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := parser.ParseSelect(tt.sql, nil)
			require.NoError(t, err)
			got := parser.Format(stmt)
			assert.Equal(t, tt.want, got)

			// Formatting is stable under reparsing.
			again, err := parser.ParseSelect(got, nil)
			require.NoError(t, err)
			assert.Equal(t, got, parser.Format(again))
		})
	}
}

func TestFormat_Nil(t *testing.T) {
	assert.Equal(t, "", parser.Format(nil))

	var expr parser.Expr
	assert.Equal(t, "", parser.Format(expr))
}

func TestFormatStatement_Pretty(t *testing.T) {
	stmt, err := parser.ParseSelect("select u.id, sum(o.amount) total from users u join orders o on o.user_id = u.id where u.active group by u.id", nil)
	require.NoError(t, err)

	want := `SELECT
  u.id,
  sum(o.amount) AS total
FROM users AS u
  JOIN orders AS o ON o.user_id = u.id
WHERE u.active
GROUP BY u.id`
	assert.Equal(t, want, parser.FormatStatement(stmt))
}

func TestFormatStatement_Subquery(t *testing.T) {
	stmt, err := parser.ParseSelect("select x from (select a as x from t) s", nil)
	require.NoError(t, err)

	want := `SELECT
  x
FROM (
  SELECT
    a AS x
  FROM t
) AS s`
	assert.Equal(t, want, parser.FormatStatement(stmt))
}

func TestFormatStatement_Other(t *testing.T) {
	stmts, err := parser.Parse("DELETE FROM t WHERE id = 1", nil)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "DELETE FROM t WHERE id = 1", parser.FormatStatement(stmts[0]))
}
