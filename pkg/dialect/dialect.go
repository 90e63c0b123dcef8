// Package dialect provides SQL dialect configuration and function classification.
//
// A Dialect tells the lexer how identifiers are quoted and tells the lineage
// engine which function names are aggregates. Built-in dialects are registered
// from init() in builtin.go and looked up by name or alias through Resolve.
package dialect

import (
	"sort"
	"strings"
)

// Type classifies how a function affects lineage.
type Type int

const (
	// LineagePassthrough means the function is treated as an ordinary expression.
	LineagePassthrough Type = iota
	// LineageAggregate means many rows aggregate to one value (SUM, COUNT, etc.).
	LineageAggregate
	// LineageWindow means the function only makes sense with an OVER clause (ROW_NUMBER, LAG, etc.).
	LineageWindow
)

// String returns the string representation of Type.
func (t Type) String() string {
	switch t {
	case LineagePassthrough:
		return "passthrough"
	case LineageAggregate:
		return "aggregate"
	case LineageWindow:
		return "window"
	default:
		return "unknown"
	}
}

// Quoting describes which identifier quote styles a dialect accepts.
type Quoting struct {
	Backtick    bool // `name` (MySQL, Hive)
	Bracket     bool // [name] (SQL Server)
	DoubleQuote bool // "name"; when false, "..." is a string literal

	// BackslashEscapes allows \' inside string literals (MySQL, Hive).
	BackslashEscapes bool
	// DollarQuote allows $$...$$ and $tag$...$tag$ string literals (PostgreSQL).
	DollarQuote bool
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name    string
	Quoting Quoting

	// SupportsTop enables SELECT TOP n (SQL Server).
	SupportsTop bool

	aliases    []string
	aggregates map[string]struct{}
	windows    map[string]struct{}
}

// Aliases returns the alternative names the dialect is registered under.
func (d *Dialect) Aliases() []string {
	out := make([]string, len(d.aliases))
	copy(out, d.aliases)
	return out
}

// FunctionClass returns the lineage classification for a function name.
// Lookup is case-insensitive.
func (d *Dialect) FunctionClass(name string) Type {
	key := strings.ToUpper(name)
	if _, ok := d.aggregates[key]; ok {
		return LineageAggregate
	}
	if _, ok := d.windows[key]; ok {
		return LineageWindow
	}
	return LineagePassthrough
}

// IsAggregate returns true if the function is an aggregate function.
func (d *Dialect) IsAggregate(name string) bool {
	return d.FunctionClass(name) == LineageAggregate
}

// IsWindow returns true if the function is a window-only function.
func (d *Dialect) IsWindow(name string) bool {
	return d.FunctionClass(name) == LineageWindow
}

// Aggregates returns the sorted aggregate function names.
func (d *Dialect) Aggregates() []string {
	return sortedKeys(d.aggregates)
}

func (d *Dialect) String() string {
	return d.Name
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
// The default quoting is ANSI double quotes.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name:       strings.ToLower(name),
			Quoting:    Quoting{DoubleQuote: true},
			aggregates: make(map[string]struct{}),
			windows:    make(map[string]struct{}),
		},
	}
}

// Aliases adds alternative names for the dialect.
func (b *Builder) Aliases(names ...string) *Builder {
	for _, n := range names {
		b.dialect.aliases = append(b.dialect.aliases, strings.ToLower(n))
	}
	return b
}

// Quoting sets the identifier quote styles.
func (b *Builder) Quoting(q Quoting) *Builder {
	b.dialect.Quoting = q
	return b
}

// Top enables SELECT TOP n.
func (b *Builder) Top() *Builder {
	b.dialect.SupportsTop = true
	return b
}

// Aggregates adds aggregate functions to the dialect.
func (b *Builder) Aggregates(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.aggregates[strings.ToUpper(f)] = struct{}{}
	}
	return b
}

// Windows adds window-only functions to the dialect.
func (b *Builder) Windows(funcs ...string) *Builder {
	for _, f := range funcs {
		b.dialect.windows[strings.ToUpper(f)] = struct{}{}
	}
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
