package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/fieldlineage/internal/export"
	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := dialect.Resolve(c.DBType); err != nil {
		return fmt.Errorf("invalid db_type: %w", err)
	}
	if !IsValidOutput(c.Output) {
		return fmt.Errorf("invalid output %q: expected one of %s", c.Output, strings.Join(OutputNames(), ", "))
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

// OutputNames lists the accepted output settings.
func OutputNames() []string {
	names := []string{"auto"}
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	return names
}

// IsValidOutput reports whether s is an accepted output setting.
func IsValidOutput(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if slices.Contains(OutputNames(), s) {
		return true
	}
	_, err := export.ParseFormat(s)
	return err == nil
}
