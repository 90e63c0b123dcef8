package lineage

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AliasState maps table aliases to real table names and column aliases to
// the expression text they stand for. Keys are compared case-insensitively;
// stored values keep their original case.
//
// An AliasState belongs to a single analysis run and is not safe for
// concurrent use.
type AliasState struct {
	tables  map[string]string
	columns map[string]string
	fold    cases.Caser
}

// NewAliasState returns an empty alias state.
func NewAliasState() *AliasState {
	return &AliasState{
		tables:  make(map[string]string),
		columns: make(map[string]string),
		fold:    cases.Lower(language.Und),
	}
}

func (s *AliasState) key(alias string) string {
	return s.fold.String(alias)
}

// RegisterTableAlias records alias -> table. Empty arguments are ignored.
func (s *AliasState) RegisterTableAlias(alias, table string) {
	if alias == "" || table == "" {
		return
	}
	s.tables[s.key(alias)] = table
}

// RegisterColumnAlias records alias -> expression text. Empty arguments are ignored.
func (s *AliasState) RegisterColumnAlias(alias, exprText string) {
	if alias == "" || exprText == "" {
		return
	}
	s.columns[s.key(alias)] = exprText
}

// ResolveTableAlias returns the table registered for name, or name itself
// when it is not a known alias.
func (s *AliasState) ResolveTableAlias(name string) string {
	if table, ok := s.tables[s.key(name)]; ok {
		return table
	}
	return name
}

// ResolveColumnAlias returns the expression text registered for name, or
// name itself when it is not a known alias.
func (s *AliasState) ResolveColumnAlias(name string) string {
	if expr, ok := s.columns[s.key(name)]; ok {
		return expr
	}
	return name
}

// Clear removes every registered alias.
func (s *AliasState) Clear() {
	clear(s.tables)
	clear(s.columns)
}

// Len returns the number of registered table and column aliases.
func (s *AliasState) Len() (tables, columns int) {
	return len(s.tables), len(s.columns)
}
