package parser

import (
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// SplitStatements splits a script on semicolons that are outside quotes
// and comments. Statements are trimmed, and those holding nothing but
// comments are dropped. Quoting follows d; a nil dialect uses ANSI quoting.
func SplitStatements(script string, d *dialect.Dialect) []string {
	var stmts []string
	lx := NewLexer(script, d)
	start := 0
	seen := false

	flush := func(end int) {
		if seen {
			stmts = append(stmts, strings.TrimSpace(script[start:end]))
		}
		seen = false
	}

	for {
		tok := lx.NextToken()
		switch tok.Type {
		case token.EOF:
			flush(len(script))
			return stmts
		case token.SEMI:
			flush(tok.Pos.Offset)
			start = tok.Pos.Offset + 1
		default:
			seen = true
		}
	}
}
