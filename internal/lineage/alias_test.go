package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliasState_Tables(t *testing.T) {
	s := NewAliasState()
	s.RegisterTableAlias("u", "users")
	s.RegisterTableAlias("O", "sales.orders")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"registered", "u", "users"},
		{"case insensitive", "U", "users"},
		{"registered upper", "o", "sales.orders"},
		{"unknown falls back", "users", "users"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.ResolveTableAlias(tt.in))
		})
	}
}

func TestAliasState_Columns(t *testing.T) {
	s := NewAliasState()
	s.RegisterColumnAlias("Total", "SUM(amount)")

	assert.Equal(t, "SUM(amount)", s.ResolveColumnAlias("total"))
	assert.Equal(t, "SUM(amount)", s.ResolveColumnAlias("TOTAL"))
	assert.Equal(t, "amount", s.ResolveColumnAlias("amount"))
}

func TestAliasState_IgnoresEmpty(t *testing.T) {
	s := NewAliasState()
	s.RegisterTableAlias("", "users")
	s.RegisterTableAlias("u", "")
	s.RegisterColumnAlias("", "x")
	s.RegisterColumnAlias("x", "")

	tables, columns := s.Len()
	assert.Zero(t, tables)
	assert.Zero(t, columns)
}

func TestAliasState_LastRegistrationWins(t *testing.T) {
	s := NewAliasState()
	s.RegisterTableAlias("t", "users")
	s.RegisterTableAlias("T", "orders")

	assert.Equal(t, "orders", s.ResolveTableAlias("t"))
	tables, _ := s.Len()
	assert.Equal(t, 1, tables)
}

func TestAliasState_Clear(t *testing.T) {
	s := NewAliasState()
	s.RegisterTableAlias("u", "users")
	s.RegisterColumnAlias("n", "name")

	s.Clear()

	tables, columns := s.Len()
	assert.Zero(t, tables)
	assert.Zero(t, columns)
	assert.Equal(t, "u", s.ResolveTableAlias("u"))
	assert.Equal(t, "n", s.ResolveColumnAlias("n"))
}
