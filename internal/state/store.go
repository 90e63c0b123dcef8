// Package state keeps a SQLite history of lineage analysis runs.
package state

import (
	"errors"
	"time"

	"github.com/leapstack-labs/fieldlineage/internal/lineage"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded analysis.
type Run struct {
	ID                string                     `json:"id" yaml:"id"`
	SQL               string                     `json:"sql" yaml:"sql"`
	DBType            string                     `json:"db_type" yaml:"db_type"`
	Success           bool                       `json:"success" yaml:"success"`
	Error             string                     `json:"error,omitempty" yaml:"error,omitempty"`
	Tables            []string                   `json:"tables" yaml:"tables"`
	FieldDependencies []*lineage.FieldDependency `json:"field_dependencies" yaml:"field_dependencies"`
	CreatedAt         time.Time                  `json:"created_at" yaml:"created_at"`
}

// Result rebuilds the LineageResult the run was saved from.
func (r *Run) Result() *lineage.LineageResult {
	result := lineage.NewLineageResult(r.SQL, r.DBType)
	result.Tables = append(result.Tables, r.Tables...)
	result.FieldDependencies = append(result.FieldDependencies, r.FieldDependencies...)
	if !r.Success {
		result.SetError(r.Error)
	}
	return result
}
