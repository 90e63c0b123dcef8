package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// Query parsing: WITH clause, CTEs, SELECT body, SELECT list, ORDER BY.
//
// Grammar:
//
//	query         → [WITH [RECURSIVE] cte_list] select_body
//	cte_list      → cte ("," cte)*
//	cte           → identifier ["(" ident_list ")"] AS "(" query ")"
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | table "." "*" | expr [[AS] identifier]
//	order_list    → order_item ("," order_item)*
//	order_item    → expr [ASC|DESC] [NULLS FIRST|LAST]

// parseSelectStmt parses a complete query.
func (p *Parser) parseSelectStmt() *SelectStmt {
	stmt := &SelectStmt{Pos: p.token.Pos}

	if p.check(token.WITH) {
		stmt.With = p.parseWithClause()
	}

	stmt.Body = p.parseSelectBody()
	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *WithClause {
	p.expect(token.WITH)
	with := &WithClause{}

	if p.match(token.RECURSIVE) {
		with.Recursive = true
	}

	for !p.failed() {
		with.CTEs = append(with.CTEs, p.parseCTE())
		if !p.match(token.COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{Name: p.parseIdentifier()}

	if p.check(token.LPAREN) {
		cte.Columns = p.parseIdentList()
	}

	p.expect(token.AS)
	p.expect(token.LPAREN)
	if !p.failed() {
		cte.Select = p.parseSelectStmt()
	}
	p.expect(token.RPAREN)

	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}

	if p.check(token.LPAREN) {
		p.nextToken()
		body.Paren = p.parseSelectStmt()
		p.expect(token.RPAREN)
	} else {
		body.Left = p.parseSelectCore()
	}
	if p.failed() {
		return body
	}

	switch p.token.Type {
	case token.UNION:
		body.Op = SetOpUnion
	case token.INTERSECT:
		body.Op = SetOpIntersect
	case token.EXCEPT:
		body.Op = SetOpExcept
	default:
		if !p.checkWord("MINUS") {
			return body
		}
		// Oracle spelling of EXCEPT
		body.Op = SetOpExcept
	}
	p.nextToken()

	if p.match(token.ALL) {
		body.All = true
	} else {
		p.match(token.DISTINCT)
	}

	body.Right = p.parseSelectBody()
	return body
}

// parseSelectCore parses a single SELECT query block.
func (p *Parser) parseSelectCore() *SelectCore {
	core := &SelectCore{}
	if !p.expect(token.SELECT) {
		return core
	}

	if p.match(token.DISTINCT) {
		core.Distinct = true
	} else {
		p.match(token.ALL)
	}

	if p.check(token.TOP) && p.dialect != nil && p.dialect.SupportsTop {
		p.nextToken()
		core.Top = p.parsePrimary()
		if p.checkWord("PERCENT") {
			p.nextToken()
		}
	}

	core.Columns = p.parseSelectList()

	if p.match(token.FROM) {
		core.From = p.parseFromClause()
	}

	if p.match(token.WHERE) {
		core.Where = p.parseExpression()
	}

	if p.check(token.GROUP) && p.checkPeek(token.BY) {
		p.nextToken()
		p.nextToken()
		core.GroupBy = p.parseExpressionList()
	}

	if p.match(token.HAVING) {
		core.Having = p.parseExpression()
	}

	if p.check(token.ORDER) && p.checkPeek(token.BY) {
		p.nextToken()
		p.nextToken()
		core.OrderBy = p.parseOrderByList()
	}

	p.parseLimitOffset(core)
	p.parseLocks(core)
	return core
}

// lockStrengths are the words that may follow FOR in a row locking clause.
var lockStrengths = []string{"UPDATE", "SHARE", "NO", "KEY"}

// parseLocks parses row locking clauses: FOR UPDATE|SHARE|NO KEY UPDATE|KEY
// SHARE [OF name, ...] [NOWAIT | SKIP LOCKED | WAIT n], and MySQL LOCK IN
// SHARE MODE. They do not affect lineage and are kept as text.
func (p *Parser) parseLocks(core *SelectCore) {
	for !p.failed() {
		if p.checkWord("LOCK") && p.checkPeek(token.IN) {
			p.nextToken()
			p.nextToken()
			if p.checkWord("SHARE") && p.checkPeekWord("MODE") {
				p.nextToken()
				p.nextToken()
				core.Locks = append(core.Locks, "LOCK IN SHARE MODE")
				continue
			}
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "SHARE MODE"))
			return
		}

		if !p.checkWord("FOR") || !slices.ContainsFunc(lockStrengths, p.checkPeekWord) {
			return
		}
		p.nextToken()

		parts := []string{"FOR"}
		for slices.ContainsFunc(lockStrengths, p.checkWord) {
			parts = append(parts, strings.ToUpper(p.token.Literal))
			p.nextToken()
		}

		if p.checkWord("OF") {
			p.nextToken()
			var names []string
			for !p.failed() {
				name := p.parseIdentifier()
				for p.match(token.DOT) {
					name += "." + p.parseIdentifier()
				}
				names = append(names, name)
				if !p.match(token.COMMA) {
					break
				}
			}
			parts = append(parts, "OF", strings.Join(names, ", "))
		}

		switch {
		case p.checkWord("NOWAIT"):
			parts = append(parts, "NOWAIT")
			p.nextToken()
		case p.checkWord("SKIP") && p.checkPeekWord("LOCKED"):
			parts = append(parts, "SKIP LOCKED")
			p.nextToken()
			p.nextToken()
		case p.checkWord("WAIT") && p.checkPeek(token.NUMBER):
			p.nextToken()
			parts = append(parts, "WAIT", p.token.Literal)
			p.nextToken()
		}
		core.Locks = append(core.Locks, strings.Join(parts, " "))
	}
}

// parseLimitOffset parses LIMIT n [OFFSET m], LIMIT m, n (MySQL),
// OFFSET m ROWS and FETCH FIRST|NEXT n ROWS ONLY.
func (p *Parser) parseLimitOffset(core *SelectCore) {
	if p.match(token.LIMIT) {
		core.Limit = p.parseExpression()
		if p.match(token.COMMA) {
			core.Offset = core.Limit
			core.Limit = p.parseExpression()
		}
	}

	if p.match(token.OFFSET) {
		core.Offset = p.parseExpression()
		if !p.match(token.ROWS) {
			p.match(token.ROW)
		}
	}

	if p.match(token.FETCH) {
		if !p.match(token.FIRST) {
			p.expect(token.NEXT)
		}
		if !p.check(token.ROW) && !p.check(token.ROWS) {
			core.Limit = p.parseExpression()
		}
		if !p.match(token.ROWS) {
			p.expect(token.ROW)
		}
		p.expect(token.ONLY)
	}
}

// parseSelectList parses the select list.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem
	for !p.failed() {
		item := SelectItem{Expr: p.parseExpression()}
		if item.Expr == nil {
			break
		}
		item.Alias = p.parseAlias()
		items = append(items, item)

		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

// parseOrderByList parses a comma-separated ORDER BY list.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem
	for !p.failed() {
		item := OrderByItem{Expr: p.parseExpression()}

		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}

		if p.match(token.NULLS) {
			first := p.check(token.FIRST)
			if !p.match(token.FIRST) {
				p.expect(token.LAST)
			}
			item.NullsFirst = &first
		}

		items = append(items, item)
		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []Expr {
	var exprs []Expr
	for !p.failed() {
		exprs = append(exprs, p.parseExpression())
		if !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}
