package parser

import (
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// Lexer tokenizes SQL input. Identifier quoting follows the dialect.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	quoting dialect.Quoting
}

// NewLexer creates a new Lexer for the given input.
// A nil dialect means ANSI quoting.
func NewLexer(input string, d *dialect.Dialect) *Lexer {
	l := &Lexer{
		input:   input,
		line:    1,
		quoting: dialect.Quoting{DoubleQuote: true},
	}
	if d != nil {
		l.quoting = d.Quoting
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// peekCharAt returns the character n positions after the current one.
func (l *Lexer) peekCharAt(n int) byte {
	i := l.pos + n
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

func (l *Lexer) currentPos() token.Pos {
	return token.Pos{Line: l.line, Column: l.col, Offset: l.pos}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	tok := token.Token{Pos: pos}

	switch l.ch {
	case 0:
		tok.Type = token.EOF
		return tok
	case '+':
		tok = l.single(token.PLUS, pos)
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			if l.peekChar() == '>' {
				l.readChar()
				tok = token.Token{Type: token.DARROW, Literal: "->>", Pos: pos}
			} else {
				tok = token.Token{Type: token.ARROW, Literal: "->", Pos: pos}
			}
		} else {
			tok = l.single(token.MINUS, pos)
		}
	case '*':
		tok = l.single(token.STAR, pos)
	case '/':
		tok = l.single(token.SLASH, pos)
	case '%':
		tok = l.single(token.PERCENT, pos)
	case '=':
		tok = l.single(token.EQ, pos)
		if l.peekChar() == '=' {
			l.readChar()
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<=", Pos: pos}
		case '>':
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "<>", Pos: pos}
		default:
			tok = l.single(token.LT, pos)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">=", Pos: pos}
		} else {
			tok = l.single(token.GT, pos)
		}
	case '!':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "!=", Pos: pos}
		case '~':
			l.readChar()
			tok = l.tilde(token.NTILDE, token.NITILDE, pos)
		default:
			tok = l.single(token.ILLEGAL, pos)
		}
	case '~':
		tok = l.tilde(token.TILDE, token.ITILDE, pos)
	case '?':
		tok = l.single(token.PARAM, pos)
	case '$':
		switch next := l.peekChar(); {
		case isDigit(next):
			return l.readParam(pos)
		case l.quoting.DollarQuote && (next == '$' || isLetter(next) || next == '_'):
			return l.readDollarString(pos)
		default:
			tok = l.single(token.ILLEGAL, pos)
		}
	case '@':
		if next := l.peekChar(); isLetter(next) || next == '_' || next == '@' {
			return l.readParam(pos)
		}
		tok = l.single(token.ILLEGAL, pos)
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = token.Token{Type: token.DPIPE, Literal: "||", Pos: pos}
		} else {
			tok = l.single(token.ILLEGAL, pos)
		}
	case ':':
		switch next := l.peekChar(); {
		case next == ':':
			l.readChar()
			tok = token.Token{Type: token.DCOLON, Literal: "::", Pos: pos}
		case isLetter(next) || isDigit(next) || next == '_':
			return l.readParam(pos)
		default:
			tok = l.single(token.ILLEGAL, pos)
		}
	case '.':
		if isDigit(l.peekChar()) {
			return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Pos: pos}
		}
		tok = l.single(token.DOT, pos)
	case ',':
		tok = l.single(token.COMMA, pos)
	case '(':
		tok = l.single(token.LPAREN, pos)
	case ')':
		tok = l.single(token.RPAREN, pos)
	case ';':
		tok = l.single(token.SEMI, pos)
	case '\'':
		return l.readString(pos)
	case '"':
		if l.quoting.DoubleQuote {
			return l.readQuotedIdentifier(pos, '"')
		}
		return l.readDoubleQuotedString(pos)
	case '`':
		if l.quoting.Backtick {
			return l.readQuotedIdentifier(pos, '`')
		}
		tok = l.single(token.ILLEGAL, pos)
	case '[':
		if l.quoting.Bracket {
			return l.readQuotedIdentifier(pos, ']')
		}
		tok = l.single(token.ILLEGAL, pos)
	default:
		switch {
		case isBitStringPrefix(l.ch) && l.peekChar() == '\'':
			// X'1F' and B'0101' are numeric literals written as strings.
			return l.readBitString(pos)
		case l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') && isHexDigit(l.peekCharAt(2)):
			return token.Token{Type: token.NUMBER, Literal: l.readHexNumber(), Pos: pos}
		case isStringPrefix(l.ch) && l.peekChar() == '\'':
			// N'unicode' (SQL Server), E'escape' (PostgreSQL)
			l.readChar()
			return l.readString(pos)
		case isLetter(l.ch) || l.ch == '_':
			lit := l.readIdentifier()
			return token.Token{Type: token.Lookup(lit), Literal: lit, Pos: pos}
		case isDigit(l.ch):
			return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Pos: pos}
		default:
			tok = l.single(token.ILLEGAL, pos)
		}
	}

	l.readChar()
	return tok
}

func (l *Lexer) single(t token.TokenType, pos token.Pos) token.Token {
	return token.Token{Type: t, Literal: string(l.ch), Pos: pos}
}

// tilde finishes a regex match operator whose last character is the
// current '~'; a following '*' makes it case-insensitive.
func (l *Lexer) tilde(plain, insensitive token.TokenType, pos token.Pos) token.Token {
	if l.peekChar() == '*' {
		l.readChar()
		return token.Token{Type: insensitive, Literal: insensitive.String(), Pos: pos}
	}
	return token.Token{Type: plain, Literal: plain.String(), Pos: pos}
}

// readParam reads a bind placeholder: $1, :name, :1, @name or @@name.
func (l *Lexer) readParam(pos token.Pos) token.Token {
	start := l.pos
	l.readChar() // sigil
	if l.ch == '@' {
		l.readChar()
	}
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return token.Token{Type: token.PARAM, Literal: l.input[start:l.pos], Pos: pos}
}

// readDollarString reads a PostgreSQL $tag$...$tag$ string. The tag may be
// empty.
func (l *Lexer) readDollarString(pos token.Pos) token.Token {
	start := l.pos
	end := start + 1
	for end < len(l.input) && (isLetter(l.input[end]) || isDigit(l.input[end]) || l.input[end] == '_') {
		end++
	}
	if end >= len(l.input) || l.input[end] != '$' {
		tok := l.single(token.ILLEGAL, pos)
		l.readChar()
		return tok
	}
	tag := l.input[start : end+1]

	body := end + 1
	closing := strings.Index(l.input[body:], tag)
	if closing < 0 {
		for l.ch != 0 {
			l.readChar()
		}
		return token.Token{Type: token.ILLEGAL, Literal: ErrUnterminatedString, Pos: pos}
	}
	lit := l.input[body : body+closing]
	for l.pos < body+closing+len(tag) {
		l.readChar()
	}
	return token.Token{Type: token.STRING, Literal: lit, Pos: pos}
}

// readBitString reads X'...' or B'...' and keeps it as written.
func (l *Lexer) readBitString(pos token.Pos) token.Token {
	start := l.pos
	l.readChar() // prefix
	if _, ok := l.readDelimited('\''); !ok {
		return token.Token{Type: token.ILLEGAL, Literal: ErrUnterminatedString, Pos: pos}
	}
	return token.Token{Type: token.NUMBER, Literal: l.input[start:l.pos], Pos: pos}
}

// readHexNumber reads 0x1F.
func (l *Lexer) readHexNumber() string {
	start := l.pos
	l.readChar()
	l.readChar()
	for isHexDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// skipWhitespaceAndComments skips whitespace, -- line comments and /* */ block comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
			continue
		}

		break
	}
}

// readString reads a single-quoted string literal.
// A doubled single quote inside the literal is an escaped quote.
func (l *Lexer) readString(pos token.Pos) token.Token {
	lit, ok := l.readDelimited('\'')
	if !ok {
		return token.Token{Type: token.ILLEGAL, Literal: ErrUnterminatedString, Pos: pos}
	}
	return token.Token{Type: token.STRING, Literal: lit, Pos: pos}
}

// readDoubleQuotedString reads "..." as a string literal (MySQL, Hive).
func (l *Lexer) readDoubleQuotedString(pos token.Pos) token.Token {
	lit, ok := l.readDelimited('"')
	if !ok {
		return token.Token{Type: token.ILLEGAL, Literal: ErrUnterminatedString, Pos: pos}
	}
	return token.Token{Type: token.STRING, Literal: lit, Pos: pos}
}

// readQuotedIdentifier reads an identifier enclosed in quotes ending at closer.
func (l *Lexer) readQuotedIdentifier(pos token.Pos, closer byte) token.Token {
	lit, ok := l.readDelimited(closer)
	if !ok {
		return token.Token{Type: token.ILLEGAL, Literal: ErrUnterminatedIdent, Pos: pos}
	}
	return token.Token{Type: token.IDENT, Literal: lit, Pos: pos, Quoted: true}
}

// readDelimited reads from the opening quote up to closer. A doubled closer
// is an escaped closer. Reports false at end of input.
func (l *Lexer) readDelimited(closer byte) (string, bool) {
	l.readChar() // skip opening quote

	var sb strings.Builder
	for l.ch != 0 {
		if l.ch == closer {
			if l.peekChar() == closer {
				sb.WriteByte(closer)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			return sb.String(), true
		}
		if l.ch == '\\' && l.quoting.BackslashEscapes && closer != ']' && l.peekChar() == closer {
			sb.WriteByte(closer)
			l.readChar()
			l.readChar()
			continue
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	return sb.String(), false
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads 12, 1.5, .5, 1e10, 2.5E-3.
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.pos]
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F'
}

func isBitStringPrefix(ch byte) bool {
	return ch == 'X' || ch == 'x' || ch == 'B' || ch == 'b'
}

func isStringPrefix(ch byte) bool {
	return ch == 'N' || ch == 'n' || ch == 'E' || ch == 'e'
}
