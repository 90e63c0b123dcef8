package parser

import (
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// Window specification parsing: OVER clauses, PARTITION BY, ORDER BY, frame specs.
//
// Grammar:
//
//	window_spec   → identifier | "(" [identifier] [PARTITION BY expr_list] [ORDER BY order_list] [frame_spec] ")"
//	frame_spec    → (ROWS|RANGE|GROUPS) frame_extent [EXCLUDE ...]
//
// The frame is not interpreted. It is kept as normalized text so that the
// window call can be printed back.

// parseWindowSpec parses a window specification after OVER.
func (p *Parser) parseWindowSpec() *WindowSpec {
	spec := &WindowSpec{}

	if p.check(token.IDENT) {
		spec.Name = p.token.Literal
		p.nextToken()
		return spec
	}

	if !p.expect(token.LPAREN) {
		return spec
	}

	// Base window name: OVER (w ORDER BY x)
	if p.check(token.IDENT) && !p.isFrameStart() {
		spec.Name = p.token.Literal
		p.nextToken()
	}

	if p.check(token.PARTITION) && p.checkPeek(token.BY) {
		p.nextToken()
		p.nextToken()
		spec.PartitionBy = p.parseExpressionList()
	}

	if p.check(token.ORDER) && p.checkPeek(token.BY) {
		p.nextToken()
		p.nextToken()
		spec.OrderBy = p.parseOrderByList()
	}

	if p.isFrameStart() {
		spec.Frame = p.parseFrameText()
	}

	p.expect(token.RPAREN)
	return spec
}

func (p *Parser) isFrameStart() bool {
	return p.check(token.ROWS) || p.checkWord("RANGE") || p.checkWord("GROUPS")
}

// parseFrameText consumes tokens up to the closing parenthesis of the
// window and returns them as text with keywords upper-cased.
func (p *Parser) parseFrameText() string {
	var words []string
	depth := 0
	for !p.check(token.EOF) && !p.failed() {
		if p.check(token.RPAREN) {
			if depth == 0 {
				break
			}
			depth--
		}
		if p.check(token.LPAREN) {
			depth++
		}

		switch {
		case p.check(token.STRING):
			words = append(words, quoteString(p.token.Literal))
		case p.check(token.IDENT) && p.token.Quoted, p.check(token.NUMBER):
			words = append(words, p.token.Literal)
		default:
			words = append(words, strings.ToUpper(p.token.Literal))
		}
		p.nextToken()
	}
	return strings.Join(words, " ")
}
