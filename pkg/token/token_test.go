package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		word string
		want TokenType
	}{
		{"select", SELECT},
		{"SELECT", SELECT},
		{"SeLeCt", SELECT},
		{"from", FROM},
		{"over", OVER},
		{"users", IDENT},
		{"count", IDENT},
		{"", IDENT},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.word))
		})
	}
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "SELECT", SELECT.String())
	assert.Equal(t, "||", DPIPE.String())
	assert.Equal(t, "IDENT", IDENT.String())
	assert.Equal(t, "->>", DARROW.String())
	assert.Equal(t, "!~*", NITILDE.String())
	assert.Equal(t, "TOKEN(9999)", TokenType(9999).String())
	assert.Equal(t, `PARAM("$1")`, Token{Type: PARAM, Literal: "$1"}.String())
}

func TestIsKeyword(t *testing.T) {
	assert.True(t, IsKeyword(SELECT))
	assert.True(t, IsKeyword(ALL))
	assert.True(t, IsKeyword(WITH))
	assert.False(t, IsKeyword(IDENT))
	assert.False(t, IsKeyword(STAR))
	assert.False(t, IsKeyword(PARAM))
}

func TestPos(t *testing.T) {
	assert.False(t, Pos{}.IsValid())
	assert.Equal(t, "-", Pos{}.String())
	assert.Equal(t, "3:7", Pos{Line: 3, Column: 7, Offset: 20}.String())
}
