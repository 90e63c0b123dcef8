// Package export flattens lineage results into report rows and renders
// them in the supported output formats.
package export

import (
	"strings"

	"github.com/leapstack-labs/fieldlineage/internal/lineage"
)

// Placeholder texts used when a dependency lacks the corresponding detail.
const (
	UnknownTable      = "unknown table"
	DirectReference   = "direct reference"
	AggregateFunction = "aggregate function"
	DirectMapping     = "direct mapping"
)

// Row is one line of a lineage report.
type Row struct {
	Index          int    `json:"index" yaml:"index"`
	TargetField    string `json:"target_field" yaml:"target_field"`
	SourceTable    string `json:"source_table" yaml:"source_table"`
	SourceFields   string `json:"source_fields" yaml:"source_fields"`
	Transformation string `json:"transformation" yaml:"transformation"`
	// Level is 1 for a plain mapping and 2 when the value is computed.
	Level int `json:"level" yaml:"level"`
}

// Rows returns one row per field dependency, in select-list order.
func Rows(result *lineage.LineageResult) []Row {
	if result == nil {
		return nil
	}
	rows := make([]Row, 0, len(result.FieldDependencies))
	for i, dep := range result.FieldDependencies {
		rows = append(rows, newRow(i+1, dep))
	}
	return rows
}

func newRow(index int, dep *lineage.FieldDependency) Row {
	row := Row{
		Index:          index,
		TargetField:    dep.TargetName,
		SourceTable:    sourceTable(dep),
		SourceFields:   DirectReference,
		Transformation: DirectMapping,
		Level:          1,
	}
	if dep.TargetAlias != "" {
		row.TargetField = dep.TargetAlias
	}
	if len(dep.SourceFields) > 0 {
		row.SourceFields = strings.Join(dep.SourceFields, ", ")
	}

	switch {
	case dep.ExpressionText != "":
		row.Transformation = dep.ExpressionText
		row.Level = 2
	case dep.IsAggregate:
		row.Transformation = AggregateFunction
		row.Level = 2
	}
	return row
}

func sourceTable(dep *lineage.FieldDependency) string {
	switch {
	case dep.SourceTable == "":
		return UnknownTable
	case dep.SourceTableAlias != "" && dep.SourceTableAlias != dep.SourceTable:
		return dep.SourceTable + " (" + dep.SourceTableAlias + ")"
	default:
		return dep.SourceTable
	}
}
