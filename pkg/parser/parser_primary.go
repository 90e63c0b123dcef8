package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// Primary expression parsing: literals, column refs, function calls.
//
// Grammar:
//
//	primary       → literal | column_ref | star | func_call | paren_expr
//	              | case_expr | cast_expr | exists_expr | interval_expr
//	literal       → NUMBER | STRING | TRUE | FALSE | NULL | PARAM
//	column_ref    → [[schema "."] table "."] column
//	star          → "*" | table "." "*"
//	func_call     → name "(" [DISTINCT|ALL] ["*" | arg_list] [ORDER BY order_list] ")"
//	                [WITHIN GROUP "(" ORDER BY order_list ")"]
//	                [FILTER "(" WHERE expr ")"] [OVER window_spec]
//	arg_list      → expr ((","|FROM|FOR|SEPARATOR|AS type_name) expr)*
//	interval_expr → INTERVAL (STRING|NUMBER) [unit]

// argKeywords are words accepted in place of a comma between function
// arguments: EXTRACT(YEAR FROM d), SUBSTRING(s FROM 1 FOR 2),
// GROUP_CONCAT(x SEPARATOR ',').
var argKeywords = []string{"FOR", "SEPARATOR"}

// trimModifiers may lead the argument list of TRIM.
var trimModifiers = []string{"BOTH", "LEADING", "TRAILING"}

// intervalUnits are the units accepted after an INTERVAL literal.
var intervalUnits = map[string]struct{}{
	"YEAR": {}, "YEARS": {}, "QUARTER": {}, "MONTH": {}, "MONTHS": {}, "WEEK": {}, "WEEKS": {},
	"DAY": {}, "DAYS": {}, "HOUR": {}, "HOURS": {}, "MINUTE": {}, "MINUTES": {},
	"SECOND": {}, "SECONDS": {}, "MILLISECOND": {}, "MICROSECOND": {},
}

// parsePrimary parses primary expressions. It records an error and
// returns nil when the current token cannot start an expression.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case token.NUMBER:
		lit := &Literal{Kind: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.STRING:
		lit := &Literal{Kind: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.PARAM:
		param := &Placeholder{Text: p.token.Literal}
		p.nextToken()
		return param

	case token.TRUE, token.FALSE:
		lit := &Literal{Kind: LiteralBool, Value: p.token.Type.String()}
		p.nextToken()
		return lit

	case token.NULL:
		p.nextToken()
		return &Literal{Kind: LiteralNull, Value: "NULL"}

	case token.STAR:
		p.nextToken()
		return &StarExpr{}

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		return p.parseCastExpr()

	case token.EXISTS:
		return p.parseExistsExpr(false)

	case token.NOT:
		if p.checkPeek(token.EXISTS) {
			p.nextToken()
			return p.parseExistsExpr(true)
		}

	case token.LPAREN:
		return p.parseParenExpr()

	case token.LEFT, token.RIGHT:
		// LEFT(s, n) and RIGHT(s, n) string functions
		if p.checkPeek(token.LPAREN) {
			name := p.token.Literal
			p.nextToken()
			return p.parseFuncCall(name)
		}

	case token.INTERVAL:
		if p.checkPeek(token.STRING) || p.checkPeek(token.NUMBER) {
			return p.parseIntervalExpr()
		}
	}

	if isIdentifier(p.token) {
		return p.parseIdentifierExpr()
	}

	p.addError(fmt.Sprintf(ErrExpectedExpression, describe(p.token)))
	return nil
}

// parseIdentifierExpr parses a column reference, table.* or function call
// starting at an identifier.
func (p *Parser) parseIdentifierExpr() Expr {
	parts := []string{p.parseIdentifier()}

	for p.check(token.DOT) && !p.failed() {
		p.nextToken()
		if p.check(token.STAR) {
			p.nextToken()
			return &StarExpr{Table: strings.Join(parts, ".")}
		}
		parts = append(parts, p.parseIdentifier())
	}

	if p.check(token.LPAREN) {
		return p.parseFuncCall(strings.Join(parts, "."))
	}

	ref := &ColumnRef{Column: parts[len(parts)-1]}
	switch len(parts) {
	case 1:
	case 2:
		ref.Table = parts[0]
	default:
		ref.Schema = strings.Join(parts[:len(parts)-2], ".")
		ref.Table = parts[len(parts)-2]
	}
	return ref
}

// parseFuncCall parses the argument list and trailing clauses of a call.
func (p *Parser) parseFuncCall(name string) *FuncCall {
	fn := &FuncCall{Name: name}
	p.expect(token.LPAREN)

	switch {
	case p.check(token.STAR):
		fn.Star = true
		p.nextToken()
	case !p.check(token.RPAREN):
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		} else {
			p.match(token.ALL)
		}
		for _, m := range trimModifiers {
			if p.checkWord(m) {
				fn.Modifier = m
				p.nextToken()
				break
			}
		}
		p.parseFuncArgs(fn)
	}

	if p.check(token.ORDER) && p.checkPeek(token.BY) {
		p.nextToken()
		p.nextToken()
		fn.OrderBy = p.parseOrderByList()
	}

	p.expect(token.RPAREN)

	if p.checkWord("WITHIN") && p.checkPeek(token.GROUP) {
		p.nextToken()
		p.nextToken()
		p.expect(token.LPAREN)
		p.expect(token.ORDER)
		p.expect(token.BY)
		fn.OrderBy = p.parseOrderByList()
		fn.Within = true
		p.expect(token.RPAREN)
	}

	if p.check(token.FILTER) && p.checkPeek(token.LPAREN) {
		p.nextToken()
		p.nextToken()
		p.expect(token.WHERE)
		fn.Filter = p.parseExpression()
		p.expect(token.RPAREN)
	}

	if p.check(token.OVER) {
		p.nextToken()
		fn.Over = p.parseWindowSpec()
	}

	return fn
}

// parseFuncArgs parses the arguments of fn up to, not including, the
// closing parenthesis or an ORDER BY.
func (p *Parser) parseFuncArgs(fn *FuncCall) {
	keyword := ""
	for !p.failed() {
		var arg Expr
		if keyword == "AS" {
			arg = &Literal{Kind: LiteralRaw, Value: p.parseTypeName()}
		} else {
			arg = p.parseExpression()
		}
		fn.Args = append(fn.Args, arg)
		if keyword != "" && fn.ArgKeywords == nil {
			fn.ArgKeywords = make([]string, len(fn.Args)-1, len(fn.Args))
		}
		if fn.ArgKeywords != nil {
			fn.ArgKeywords = append(fn.ArgKeywords, keyword)
		}

		keyword = p.argSeparator()
		if keyword == "" && !p.match(token.COMMA) {
			return
		}
	}
}

// argSeparator consumes and returns a keyword argument separator, or
// returns "" when the current token is not one.
func (p *Parser) argSeparator() string {
	switch p.token.Type {
	case token.FROM:
		p.nextToken()
		return "FROM"
	case token.AS:
		p.nextToken()
		return "AS"
	}
	for _, w := range argKeywords {
		if p.checkWord(w) {
			p.nextToken()
			return w
		}
	}
	return ""
}

// parseIntervalExpr parses INTERVAL '1' DAY.
func (p *Parser) parseIntervalExpr() Expr {
	p.expect(token.INTERVAL)
	interval := &IntervalExpr{Value: p.parsePrimary()}

	if p.check(token.IDENT) && !p.token.Quoted {
		unit := strings.ToUpper(p.token.Literal)
		if _, ok := intervalUnits[unit]; ok {
			interval.Unit = unit
			p.nextToken()
		}
	}
	return interval
}
