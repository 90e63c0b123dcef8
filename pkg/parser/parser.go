// Package parser provides a dialect-aware SQL parser that produces the AST
// consumed by the lineage engine.
//
// # Usage
//
//	d, err := dialect.Resolve("mysql")
//	stmts, err := parser.Parse("SELECT a, b FROM t", d)
//
// # Grammar Overview
//
// Only queries are parsed in full. Any other statement is recognised by its
// leading keyword and returned as *OtherStmt with its raw text.
//
//	script        → statement (";" statement)* [";"]
//	statement     → query | other_statement
//	query         → [WITH cte_list] select_body
//	select_body   → select_operand [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_operand→ select_core | "(" query ")"
//	select_core   → SELECT [DISTINCT|ALL] [TOP n] select_list
//	                [FROM from_clause] [WHERE expr] [GROUP BY expr_list]
//	                [HAVING expr] [ORDER BY order_list] [LIMIT n [OFFSET n]]
//	                [OFFSET n ROWS] [FETCH FIRST|NEXT n ROWS ONLY]
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// otherStatementKeywords are leading keywords of statements that are
// recognised but not parsed.
var otherStatementKeywords = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "MERGE": {}, "UPSERT": {}, "REPLACE": {},
	"CREATE": {}, "DROP": {}, "ALTER": {}, "TRUNCATE": {}, "RENAME": {}, "COMMENT": {},
	"GRANT": {}, "REVOKE": {},
	"SET": {}, "USE": {}, "SHOW": {}, "DESCRIBE": {}, "DESC": {}, "EXPLAIN": {},
	"CALL": {}, "EXEC": {}, "EXECUTE": {}, "DECLARE": {},
	"BEGIN": {}, "COMMIT": {}, "ROLLBACK": {}, "ANALYZE": {}, "LOAD": {},
}

// Parser parses SQL into an AST.
type Parser struct {
	input   string
	lexer   *Lexer
	token   token.Token // current token
	peek    token.Token // lookahead token
	peek2   token.Token // second lookahead token
	errors  []error
	dialect *dialect.Dialect
}

// NewParser creates a new parser for the given SQL input.
// A nil dialect parses with ANSI quoting and no TOP support.
func NewParser(sql string, d *dialect.Dialect) *Parser {
	p := &Parser{
		input:   sql,
		lexer:   NewLexer(sql, d),
		dialect: d,
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses every statement in sql. Empty statements between semicolons
// are skipped. The first error stops parsing.
func Parse(sql string, d *dialect.Dialect) (stmts []Statement, err error) {
	defer func() {
		if r := recover(); r != nil {
			stmts = nil
			err = &ParseError{Message: fmt.Sprintf("internal parser error: %v", r)}
		}
	}()

	p := NewParser(sql, d)
	return p.parseScript()
}

// ParseSelect parses sql and returns its first statement as a query.
func ParseSelect(sql string, d *dialect.Dialect) (*SelectStmt, error) {
	stmts, err := Parse(sql, d)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, &ParseError{Message: "no statement found"}
	}
	sel, ok := stmts[0].(*SelectStmt)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("expected SELECT statement, got %s", stmts[0].Kind())}
	}
	return sel, nil
}

func (p *Parser) parseScript() ([]Statement, error) {
	var stmts []Statement
	for {
		for p.match(token.SEMI) {
		}
		if p.check(token.EOF) {
			break
		}

		stmt := p.parseStatement()
		if p.failed() {
			return nil, p.errors[0]
		}
		stmts = append(stmts, stmt)

		if !p.check(token.SEMI) && !p.check(token.EOF) {
			p.addError(fmt.Sprintf(ErrTrailingInput, describe(p.token)))
			return nil, p.errors[0]
		}
	}
	return stmts, nil
}

// parseStatement dispatches on the leading keyword.
func (p *Parser) parseStatement() Statement {
	switch p.token.Type {
	case token.SELECT, token.WITH, token.LPAREN:
		return p.parseSelectStmt()
	}

	keyword := strings.ToUpper(p.token.Literal)
	if _, ok := otherStatementKeywords[keyword]; ok && (p.check(token.IDENT) || token.IsKeyword(p.token.Type)) && !p.token.Quoted {
		return p.skipOtherStatement(keyword)
	}

	p.addError(fmt.Sprintf(ErrUnexpectedStart, describe(p.token)))
	return nil
}

// skipOtherStatement consumes tokens up to the next top-level semicolon.
func (p *Parser) skipOtherStatement(keyword string) *OtherStmt {
	start := p.token.Pos
	end := start.Offset
	depth := 0
	for !p.check(token.EOF) {
		if depth == 0 && p.check(token.SEMI) {
			break
		}
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth > 0 {
				depth--
			}
		case token.ILLEGAL:
			// Placeholders and dialect operators are fine here; broken quoting is not.
			if p.token.Literal == ErrUnterminatedString || p.token.Literal == ErrUnterminatedIdent {
				p.addError(p.token.Literal)
				return nil
			}
		}
		p.nextToken()
		if p.check(token.EOF) {
			end = len(p.input)
		} else {
			end = p.token.Pos.Offset
		}
	}
	return &OtherStmt{
		Pos:     start,
		Keyword: keyword,
		Text:    strings.TrimSpace(p.input[start.Offset:end]),
	}
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// checkPeekWord reports whether the peek token is the unquoted word w.
func (p *Parser) checkPeekWord(w string) bool {
	return p.peek.Type == token.IDENT && !p.peek.Quoted && strings.EqualFold(p.peek.Literal, w)
}

// checkWord reports whether the current token is the unquoted word w.
// Used for context-sensitive words that are not reserved keywords.
func (p *Parser) checkWord(w string) bool {
	return p.token.Type == token.IDENT && !p.token.Quoted && strings.EqualFold(p.token.Literal, w)
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// addError adds a parse error. Lexer errors carry their own message.
func (p *Parser) addError(msg string) {
	if p.check(token.ILLEGAL) && (p.token.Literal == ErrUnterminatedString || p.token.Literal == ErrUnterminatedIdent) {
		msg = p.token.Literal
	}
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// failed reports whether any error has been recorded.
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// ---------- Identifier Helpers ----------

// isSoftKeyword reports whether t is a keyword that may still be used as an
// identifier or alias.
func isSoftKeyword(t token.TokenType) bool {
	switch t {
	case token.FIRST, token.LAST, token.NEXT, token.ROW, token.ROWS, token.ONLY,
		token.NULLS, token.FILTER, token.PARTITION, token.RECURSIVE, token.TOP,
		token.OVER, token.INTERVAL:
		return true
	}
	return false
}

// isIdentifier reports whether tok can name a column, table or alias.
func isIdentifier(tok token.Token) bool {
	return tok.Type == token.IDENT || isSoftKeyword(tok.Type)
}

// parseIdentifier consumes an identifier and returns its text.
func (p *Parser) parseIdentifier() string {
	if !isIdentifier(p.token) {
		p.addError(fmt.Sprintf(ErrExpectedIdent, describe(p.token)))
		return ""
	}
	name := p.token.Literal
	p.nextToken()
	return name
}

// parseAlias parses an optional [AS] alias. A string literal is accepted
// after AS (MySQL style).
func (p *Parser) parseAlias() string {
	if p.match(token.AS) {
		if p.check(token.STRING) {
			name := p.token.Literal
			p.nextToken()
			return name
		}
		return p.parseIdentifier()
	}
	if p.check(token.IDENT) && !p.isClauseWord() {
		name := p.token.Literal
		p.nextToken()
		return name
	}
	return ""
}

// isClauseWord reports whether the current unquoted identifier starts a
// dialect-specific clause and so cannot be an implicit alias.
func (p *Parser) isClauseWord() bool {
	for _, w := range []string{"MINUS", "FOR", "WINDOW", "QUALIFY", "LATERAL"} {
		if p.checkWord(w) {
			return true
		}
	}
	// MySQL LOCK IN SHARE MODE
	return p.checkWord("LOCK") && p.checkPeek(token.IN)
}

// parseIdentList parses "(" ident ("," ident)* ")".
func (p *Parser) parseIdentList() []string {
	p.expect(token.LPAREN)
	var names []string
	for !p.failed() {
		names = append(names, p.parseIdentifier())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return names
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER, token.STRING, token.PARAM, token.ILLEGAL:
		return fmt.Sprintf("%q", tok.Literal)
	default:
		return tok.Type.String()
	}
}
