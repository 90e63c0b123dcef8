package token

import "fmt"

// Pos is a location in SQL text. Line and Column are 1-based, Offset is a
// 0-based byte offset.
type Pos struct {
	Line   int
	Column int
	Offset int
}

// IsValid reports whether the position was set by the lexer.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
