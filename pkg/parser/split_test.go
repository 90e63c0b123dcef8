package parser_test

import (
	"testing"

	"github.com/leapstack-labs/fieldlineage/pkg/parser"
	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		dialect string
		want    []string
	}{
		{
			name:   "single without semicolon",
			script: "SELECT 1",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "multiple",
			script: "SELECT 1;\nSELECT 2;\n",
			want:   []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:   "semicolon inside string",
			script: "SELECT 'a;b' AS x; SELECT 2",
			want:   []string{"SELECT 'a;b' AS x", "SELECT 2"},
		},
		{
			name:   "semicolon inside comments",
			script: "SELECT 1 -- not; a split\n; /* also; not */ SELECT 2",
			want:   []string{"SELECT 1 -- not; a split", "/* also; not */ SELECT 2"},
		},
		{
			name:   "comment-only tail dropped",
			script: "SELECT 1; -- done\n",
			want:   []string{"SELECT 1"},
		},
		{
			name:    "backtick identifier",
			script:  "SELECT `a;b` FROM t; SELECT 2",
			dialect: "mysql",
			want:    []string{"SELECT `a;b` FROM t", "SELECT 2"},
		},
		{
			name:    "semicolon inside dollar quotes",
			script:  "SELECT $$a;b$$ AS body; SELECT $fn$x;y$fn$",
			dialect: "postgresql",
			want:    []string{"SELECT $$a;b$$ AS body", "SELECT $fn$x;y$fn$"},
		},
		{
			name:   "empty",
			script: " ;; ",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			if tt.dialect != "" {
				got = parser.SplitStatements(tt.script, mustDialect(t, tt.dialect))
			} else {
				got = parser.SplitStatements(tt.script, nil)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
