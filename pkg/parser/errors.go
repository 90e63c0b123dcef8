package parser

import (
	"fmt"

	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Pos
	Message string
}

func (e *ParseError) Error() string {
	if !e.Pos.IsValid() {
		return "parse error: " + e.Message
	}
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected token %s, expected %s"
	ErrUnexpectedStart    = "unexpected %s at start of statement"
	ErrTrailingInput      = "unexpected %s after end of statement"
	ErrUnterminatedString = "unterminated string literal"
	ErrUnterminatedIdent  = "unterminated quoted identifier"
	ErrExpectedExpression = "expected expression, got %s"
	ErrExpectedTable      = "expected table name or subquery, got %s"
	ErrExpectedIdent      = "expected identifier, got %s"
)
