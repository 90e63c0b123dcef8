package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// FROM clause parsing: table references, derived tables, JOINs.
//
// Grammar:
//
//	from_clause   → table_factor (join | "," table_factor | lateral_view)*
//	table_factor  → table_name | derived_table | "(" from_clause ")"
//	table_name    → [catalog "."] [schema "."] identifier [[AS] identifier] [WITH "(" hint_list ")"]
//	derived_table → [LATERAL] "(" query ")" [[AS] identifier ["(" ident_list ")"]]
//	lateral_view  → LATERAL VIEW [OUTER] func_call [identifier] [AS ident_list]
//	join          → [NATURAL] join_type JOIN table_factor [ON expr | USING "(" ident_list ")"]
//	join_type     → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS
//
// Joins are folded to the left, so every join produces a JoinExpr whose Left
// is everything parsed so far.

// parseFromClause parses the FROM clause into a single table source.
func (p *Parser) parseFromClause() TableRef {
	source := p.parseTableFactor()

	for !p.failed() {
		if p.match(token.COMMA) {
			source = &JoinExpr{Left: source, Right: p.parseTableFactor(), Type: JoinComma}
			continue
		}

		if p.checkWord("LATERAL") && p.checkPeekWord("VIEW") {
			source = p.parseLateralView(source)
			continue
		}

		join, ok := p.parseJoinPrefix()
		if !ok {
			break
		}
		join.Left = source
		join.Right = p.parseTableFactor()

		switch {
		case p.match(token.ON):
			join.Condition = p.parseExpression()
		case p.check(token.USING):
			p.nextToken()
			join.Using = p.parseIdentList()
		}
		source = join
	}

	return source
}

// parseJoinPrefix consumes [NATURAL] join_type JOIN. It reports false,
// consuming nothing, when the current token does not start a join.
func (p *Parser) parseJoinPrefix() (*JoinExpr, bool) {
	switch p.token.Type {
	case token.JOIN, token.INNER, token.LEFT, token.RIGHT, token.FULL, token.CROSS, token.NATURAL:
	default:
		return nil, false
	}

	join := &JoinExpr{Type: JoinInner}
	if p.match(token.NATURAL) {
		join.Natural = true
	}

	switch {
	case p.match(token.INNER):
	case p.match(token.LEFT):
		join.Type = JoinLeft
		p.match(token.OUTER)
	case p.match(token.RIGHT):
		join.Type = JoinRight
		p.match(token.OUTER)
	case p.match(token.FULL):
		join.Type = JoinFull
		p.match(token.OUTER)
	case p.match(token.CROSS):
		join.Type = JoinCross
	}

	p.expect(token.JOIN)
	return join, true
}

// parseTableFactor parses one table source.
func (p *Parser) parseTableFactor() TableRef {
	if p.checkWord("LATERAL") && p.checkPeek(token.LPAREN) {
		p.nextToken()
		derived := p.parseDerivedTable()
		derived.Lateral = true
		return derived
	}

	if p.check(token.LPAREN) {
		if p.checkPeek(token.SELECT) || p.checkPeek(token.WITH) || p.checkPeek(token.LPAREN) && p.peek2.Type == token.SELECT {
			return p.parseDerivedTable()
		}
		// Parenthesised join: (a JOIN b ON ...)
		p.nextToken()
		source := p.parseFromClause()
		p.expect(token.RPAREN)
		p.parseAlias()
		return source
	}

	if !isIdentifier(p.token) {
		p.addError(fmt.Sprintf(ErrExpectedTable, describe(p.token)))
		return nil
	}

	parts := []string{p.parseIdentifier()}
	for p.check(token.DOT) && !p.failed() {
		p.nextToken()
		parts = append(parts, p.parseIdentifier())
	}

	table := &TableName{}
	switch len(parts) {
	case 1:
		table.Name = parts[0]
	case 2:
		table.Schema, table.Name = parts[0], parts[1]
	default:
		table.Catalog = joinNonEmpty(parts[:len(parts)-2]...)
		table.Schema, table.Name = parts[len(parts)-2], parts[len(parts)-1]
	}
	table.Alias = p.parseAlias()
	if p.check(token.WITH) && p.checkPeek(token.LPAREN) {
		p.nextToken()
		table.Hints = p.parseTableHints()
	}
	return table
}

// parseTableHints parses "(" hint ([","] hint)* ")" where a hint is a name
// with optional arguments: NOLOCK, INDEX(ix_name).
func (p *Parser) parseTableHints() []string {
	p.expect(token.LPAREN)
	var hints []string
	for !p.failed() && !p.check(token.RPAREN) {
		hint := strings.ToUpper(p.parseIdentifier())
		if p.match(token.LPAREN) {
			args := p.parseExpressionList()
			p.expect(token.RPAREN)
			parts := make([]string, len(args))
			for i, arg := range args {
				parts[i] = Format(arg)
			}
			hint += "(" + strings.Join(parts, ", ") + ")"
		}
		hints = append(hints, hint)
		p.match(token.COMMA)
	}
	p.expect(token.RPAREN)
	return hints
}

// parseLateralView parses a LATERAL VIEW applied to source.
func (p *Parser) parseLateralView(source TableRef) TableRef {
	p.nextToken() // LATERAL
	p.nextToken() // VIEW
	view := &LateralView{Source: source, Outer: p.match(token.OUTER)}

	name := p.parseIdentifier()
	if !p.check(token.LPAREN) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), token.LPAREN))
		return view
	}
	view.Func = p.parseFuncCall(name)

	if p.check(token.IDENT) && !p.isClauseWord() {
		view.Alias = p.parseIdentifier()
	}
	if p.match(token.AS) {
		for !p.failed() {
			view.Columns = append(view.Columns, p.parseIdentifier())
			// A comma followed by a lone name continues the column list;
			// a comma join needs "name alias" or "schema.name".
			if !p.check(token.COMMA) || !p.checkPeek(token.IDENT) ||
				p.peek2.Type == token.DOT || p.peek2.Type == token.IDENT {
				break
			}
			p.nextToken()
		}
	}
	return view
}

// parseDerivedTable parses "(" query ")" [AS] alias [(columns)].
func (p *Parser) parseDerivedTable() *DerivedTable {
	p.expect(token.LPAREN)
	derived := &DerivedTable{Select: p.parseSelectStmt()}
	p.expect(token.RPAREN)

	derived.Alias = p.parseAlias()
	if derived.Alias != "" && p.check(token.LPAREN) {
		derived.Columns = p.parseIdentList()
	}
	return derived
}
