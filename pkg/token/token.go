// Package token defines the lexical tokens of the SELECT grammar understood by
// the fieldlineage parser.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads better than token.Type at call sites
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // identifier, quoted or not
	NUMBER // 123, 45.67, 1e10
	STRING // 'hello'
	PARAM  // ?, $1, :name, @name

	// Operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	DPIPE   // ||
	EQ      // =
	NE      // != or <>
	LT      // <
	GT      // >
	LE      // <=
	GE      // >=
	DOT     // .
	COMMA   // ,
	LPAREN  // (
	RPAREN  // )
	SEMI    // ;
	DCOLON  // ::
	TILDE   // ~
	ITILDE  // ~*
	NTILDE  // !~
	NITILDE // !~*
	ARROW   // ->
	DARROW  // ->>

	// Keywords (alphabetical)
	ALL
	AND
	AS
	ASC
	BETWEEN
	BY
	CASE
	CAST
	CROSS
	DESC
	DISTINCT
	ELSE
	END
	EXCEPT
	EXISTS
	FALSE
	FETCH
	FILTER
	FIRST
	FROM
	FULL
	GROUP
	HAVING
	ILIKE
	IN
	INNER
	INTERSECT
	INTERVAL
	IS
	JOIN
	LAST
	LEFT
	LIKE
	LIMIT
	NATURAL
	NEXT
	NOT
	NULL
	NULLS
	OFFSET
	ON
	ONLY
	OR
	ORDER
	OUTER
	OVER
	PARTITION
	RECURSIVE
	RIGHT
	ROW
	ROWS
	SELECT
	THEN
	TOP
	TRUE
	UNION
	USING
	WHEN
	WHERE
	WITH
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",
	PARAM:  "PARAM",

	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	DPIPE:   "||",
	EQ:      "=",
	NE:      "<>",
	LT:      "<",
	GT:      ">",
	LE:      "<=",
	GE:      ">=",
	DOT:     ".",
	COMMA:   ",",
	LPAREN:  "(",
	RPAREN:  ")",
	SEMI:    ";",
	DCOLON:  "::",
	TILDE:   "~",
	ITILDE:  "~*",
	NTILDE:  "!~",
	NITILDE: "!~*",
	ARROW:   "->",
	DARROW:  "->>",
}

// keywords maps lower-case keyword text to its token type.
var keywords = map[string]TokenType{
	"all":       ALL,
	"and":       AND,
	"as":        AS,
	"asc":       ASC,
	"between":   BETWEEN,
	"by":        BY,
	"case":      CASE,
	"cast":      CAST,
	"cross":     CROSS,
	"desc":      DESC,
	"distinct":  DISTINCT,
	"else":      ELSE,
	"end":       END,
	"except":    EXCEPT,
	"exists":    EXISTS,
	"false":     FALSE,
	"fetch":     FETCH,
	"filter":    FILTER,
	"first":     FIRST,
	"from":      FROM,
	"full":      FULL,
	"group":     GROUP,
	"having":    HAVING,
	"ilike":     ILIKE,
	"in":        IN,
	"inner":     INNER,
	"intersect": INTERSECT,
	"interval":  INTERVAL,
	"is":        IS,
	"join":      JOIN,
	"last":      LAST,
	"left":      LEFT,
	"like":      LIKE,
	"limit":     LIMIT,
	"natural":   NATURAL,
	"next":      NEXT,
	"not":       NOT,
	"null":      NULL,
	"nulls":     NULLS,
	"offset":    OFFSET,
	"on":        ON,
	"only":      ONLY,
	"or":        OR,
	"order":     ORDER,
	"outer":     OUTER,
	"over":      OVER,
	"partition": PARTITION,
	"recursive": RECURSIVE,
	"right":     RIGHT,
	"row":       ROW,
	"rows":      ROWS,
	"select":    SELECT,
	"then":      THEN,
	"top":       TOP,
	"true":      TRUE,
	"union":     UNION,
	"using":     USING,
	"when":      WHEN,
	"where":     WHERE,
	"with":      WITH,
}

func init() {
	for word, t := range keywords {
		tokenNames[t] = strings.ToUpper(word)
	}
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// Lookup returns the keyword token for word, or IDENT if word is not a keyword.
// The comparison is case-insensitive.
func Lookup(word string) TokenType {
	if t, ok := keywords[strings.ToLower(word)]; ok {
		return t
	}
	return IDENT
}

// IsKeyword reports whether t is a keyword token.
func IsKeyword(t TokenType) bool {
	return t >= ALL && t <= WITH
}

// Token is a lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Pos
	// Quoted is set for identifiers written with quote characters.
	Quoted bool
}

func (t Token) String() string {
	if t.Type == IDENT || t.Type == NUMBER || t.Type == STRING || t.Type == PARAM {
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	}
	return t.Type.String()
}
