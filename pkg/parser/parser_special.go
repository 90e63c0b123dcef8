package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// Special expression parsing: CASE, CAST, EXISTS, parenthesized expressions, subqueries.
//
// Grammar:
//
//	case_expr     → CASE [expr] (WHEN expr THEN expr)+ [ELSE expr] END
//	cast_expr     → CAST "(" expr AS type_name ")"
//	exists_expr   → [NOT] EXISTS "(" query ")"
//	paren_expr    → "(" query ")" | "(" expr ("," expr)* ")"
//	type_name     → identifier+ ["(" number ["," number] ")"]

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() Expr {
	p.expect(token.CASE)
	caseExpr := &CaseExpr{}

	if !p.check(token.WHEN) {
		caseExpr.Operand = p.parseExpression()
	}

	for !p.failed() && p.match(token.WHEN) {
		when := WhenClause{Condition: p.parseExpression()}
		p.expect(token.THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}
	if len(caseExpr.Whens) == 0 && !p.failed() {
		p.addError(fmtUnexpected(p.token, token.WHEN))
	}

	if p.match(token.ELSE) {
		caseExpr.Else = p.parseExpression()
	}

	p.expect(token.END)
	return caseExpr
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() Expr {
	p.expect(token.CAST)
	p.expect(token.LPAREN)

	cast := &CastExpr{Expr: p.parseExpression()}
	p.expect(token.AS)
	cast.Type = p.parseTypeName()
	p.expect(token.RPAREN)

	return cast
}

// typeSuffixes are the words that may follow the first word of a type name.
var typeSuffixes = map[string]struct{}{
	"PRECISION": {}, "VARYING": {}, "UNSIGNED": {}, "SIGNED": {},
}

// parseTypeName parses a type name such as INT, VARCHAR(255),
// DECIMAL(10, 2) or DOUBLE PRECISION. Words are upper-cased.
func (p *Parser) parseTypeName() string {
	if !isIdentifier(p.token) {
		p.addError(fmtUnexpected(p.token, token.IDENT))
		return ""
	}

	typeName := strings.ToUpper(p.token.Literal)
	p.nextToken()
	for p.check(token.IDENT) && !p.token.Quoted {
		word := strings.ToUpper(p.token.Literal)
		if _, ok := typeSuffixes[word]; !ok {
			break
		}
		typeName += " " + word
		p.nextToken()
	}

	if p.match(token.LPAREN) {
		var params []string
		for !p.failed() {
			if p.check(token.NUMBER) || isIdentifier(p.token) {
				params = append(params, p.token.Literal)
				p.nextToken()
			}
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		typeName += "(" + strings.Join(params, ", ") + ")"
	}

	return typeName
}

// parseParenExpr parses a parenthesized expression, row value or scalar subquery.
func (p *Parser) parseParenExpr() Expr {
	p.expect(token.LPAREN)

	if p.check(token.SELECT) || p.check(token.WITH) {
		subquery := &SubqueryExpr{Select: p.parseSelectStmt()}
		p.expect(token.RPAREN)
		return subquery
	}

	expr := p.parseExpression()
	if p.check(token.COMMA) {
		list := &ListExpr{Items: []Expr{expr}}
		for !p.failed() && p.match(token.COMMA) {
			list.Items = append(list.Items, p.parseExpression())
		}
		p.expect(token.RPAREN)
		return list
	}

	p.expect(token.RPAREN)
	return &ParenExpr{Expr: expr}
}

// parseExistsExpr parses EXISTS (query). NOT has already been consumed.
func (p *Parser) parseExistsExpr(not bool) Expr {
	p.expect(token.EXISTS)
	p.expect(token.LPAREN)
	exists := &ExistsExpr{Not: not, Select: p.parseSelectStmt()}
	p.expect(token.RPAREN)
	return exists
}

func fmtUnexpected(tok token.Token, want token.TokenType) string {
	return fmt.Sprintf(ErrUnexpectedToken, describe(tok), want)
}
