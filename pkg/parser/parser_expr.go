package parser

import (
	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// Expression parsing using a Pratt parser.
//
// Precedence levels:
//
//	precedenceOr         = 1
//	precedenceAnd        = 2
//	precedenceNot        = 3
//	precedenceComparison = 4  (=, <>, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE, ~, ~*, !~, !~*)
//	precedenceAddition   = 5  (+, -, ||)
//	precedenceMultiply   = 6  (*, /, %)
//	precedenceUnary      = 7  (-, +, ~)
//	precedencePostfix    = 8  (::, ->, ->>, COLLATE)
const (
	precedenceNone = iota
	precedenceOr
	precedenceAnd
	precedenceNot
	precedenceComparison
	precedenceAddition
	precedenceMultiply
	precedenceUnary
	precedencePostfix
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(precedenceOr)
}

// parseExpressionWithPrecedence parses operators binding at least as tightly
// as minPrecedence.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for !p.failed() {
		if p.checkWord("COLLATE") && minPrecedence <= precedencePostfix {
			left = p.parseCollateExpr(left)
			continue
		}
		prec := infixPrecedence(p.token.Type)
		if prec == precedenceNone || prec < minPrecedence {
			break
		}
		left = p.parseInfixExpr(left, prec)
	}

	return left
}

// parsePrefixExpr parses unary operators and primary expressions.
func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case token.NOT:
		p.nextToken()
		return &UnaryExpr{Op: token.NOT, Expr: p.parseExpressionWithPrecedence(precedenceNot)}
	case token.MINUS, token.PLUS, token.TILDE:
		op := p.token.Type
		p.nextToken()
		return &UnaryExpr{Op: op, Expr: p.parseExpressionWithPrecedence(precedenceUnary)}
	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of t as an infix operator,
// or precedenceNone when t is not one.
func infixPrecedence(t token.TokenType) int {
	switch t {
	case token.OR:
		return precedenceOr
	case token.AND:
		return precedenceAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.BETWEEN, token.LIKE, token.ILIKE, token.NOT,
		token.TILDE, token.ITILDE, token.NTILDE, token.NITILDE:
		return precedenceComparison
	case token.PLUS, token.MINUS, token.DPIPE:
		return precedenceAddition
	case token.STAR, token.SLASH, token.PERCENT:
		return precedenceMultiply
	case token.DCOLON, token.ARROW, token.DARROW:
		return precedencePostfix
	default:
		return precedenceNone
	}
}

// parseInfixExpr parses the operator at the current token applied to left.
func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	switch p.token.Type {
	case token.NOT:
		return p.parseNotInfixExpr(left)
	case token.IS:
		return p.parseIsExpr(left)
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, false)
	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false)
	case token.LIKE, token.ILIKE:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, false, op)
	case token.DCOLON:
		p.nextToken()
		return &CastExpr{Expr: left, Type: p.parseTypeName(), Postfix: true}
	}

	op := p.token.Type
	p.nextToken()
	right := p.parseExpressionWithPrecedence(prec + 1)
	return &BinaryExpr{Left: left, Op: op, Right: right}
}

// parseCollateExpr parses the COLLATE suffix of left. The collation may be
// a bare name, a quoted name or a string.
func (p *Parser) parseCollateExpr(left Expr) Expr {
	p.nextToken() // consume COLLATE
	collate := &CollateExpr{Expr: left}

	switch {
	case p.check(token.STRING):
		collate.Collation = quoteString(p.token.Literal)
		p.nextToken()
	case p.check(token.IDENT) && p.token.Quoted:
		collate.Collation = `"` + p.token.Literal + `"`
		p.nextToken()
	default:
		collate.Collation = p.parseIdentifier()
	}
	return collate
}

// parseNotInfixExpr handles NOT IN, NOT BETWEEN, NOT LIKE and NOT ILIKE.
func (p *Parser) parseNotInfixExpr(left Expr) Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, true)
	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true)
	case token.LIKE, token.ILIKE:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, true, op)
	default:
		p.addError("expected IN, BETWEEN, LIKE, or ILIKE after NOT")
		return left
	}
}

// parseIsExpr parses IS [NOT] NULL|TRUE|FALSE.
func (p *Parser) parseIsExpr(left Expr) Expr {
	p.nextToken() // consume IS
	not := p.match(token.NOT)

	switch p.token.Type {
	case token.NULL, token.TRUE, token.FALSE:
		value := p.token.Type.String()
		p.nextToken()
		return &IsExpr{Expr: left, Not: not, Value: value}
	default:
		p.addError("expected NULL, TRUE, or FALSE after IS")
		return left
	}
}

// parseInExpr parses the parenthesised part of an IN expression.
func (p *Parser) parseInExpr(left Expr, not bool) Expr {
	p.expect(token.LPAREN)
	in := &InExpr{Expr: left, Not: not}

	if p.check(token.SELECT) || p.check(token.WITH) {
		in.Query = p.parseSelectStmt()
	} else {
		in.Values = p.parseExpressionList()
	}

	p.expect(token.RPAREN)
	return in
}

// parseBetweenExpr parses the bounds of a BETWEEN expression. Bounds are
// parsed above AND so that the separator is not swallowed.
func (p *Parser) parseBetweenExpr(left Expr, not bool) Expr {
	between := &BetweenExpr{Expr: left, Not: not}
	between.Low = p.parseExpressionWithPrecedence(precedenceAddition)
	p.expect(token.AND)
	between.High = p.parseExpressionWithPrecedence(precedenceAddition)
	return between
}

// parseLikeExpr parses the pattern of a LIKE/ILIKE expression.
func (p *Parser) parseLikeExpr(left Expr, not bool, op token.TokenType) Expr {
	return &LikeExpr{
		Expr:    left,
		Not:     not,
		Op:      op,
		Pattern: p.parseExpressionWithPrecedence(precedenceAddition),
	}
}
