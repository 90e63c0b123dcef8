package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Dialect registry, keyed by canonical name and by alias.
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
	byAlias    = make(map[string]*Dialect)
)

// ErrDialectRequired is returned when a dialect is required but not provided.
var ErrDialectRequired = errors.New("database type cannot be blank")

// UnsupportedError is returned by Resolve for an unknown database type.
type UnsupportedError struct {
	Name      string
	Supported []string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported database type: %s. Supported types: [%s]",
		e.Name, strings.Join(e.Supported, ", "))
}

// Register registers a dialect in the global registry.
// Called by the built-in dialects from init().
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Name] = d
	for _, a := range d.aliases {
		byAlias[a] = d
	}
}

// Get returns a dialect by canonical name or alias. The lookup is
// case-insensitive and ignores surrounding whitespace.
func Get(name string) (*Dialect, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	if d, ok := dialects[key]; ok {
		return d, true
	}
	d, ok := byAlias[key]
	return d, ok
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a user-supplied database type to a registered dialect.
func Resolve(dbType string) (*Dialect, error) {
	if strings.TrimSpace(dbType) == "" {
		return nil, ErrDialectRequired
	}
	if d, ok := Get(dbType); ok {
		return d, nil
	}
	return nil, &UnsupportedError{Name: dbType, Supported: List()}
}

// IsSupported reports whether dbType names a registered dialect.
func IsSupported(dbType string) bool {
	_, err := Resolve(dbType)
	return err == nil
}
