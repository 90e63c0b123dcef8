package lineage

import "slices"

// FieldDependency describes where one output column comes from.
type FieldDependency struct {
	// TargetName is the output column name: the alias when one is declared,
	// else the column name, "*" for wildcards, or the expression text.
	TargetName  string `json:"target_name" yaml:"target_name"`
	TargetAlias string `json:"target_alias,omitempty" yaml:"target_alias,omitempty"`

	SourceTable      string   `json:"source_table,omitempty" yaml:"source_table,omitempty"`
	SourceTableAlias string   `json:"source_table_alias,omitempty" yaml:"source_table_alias,omitempty"`
	SourceFields     []string `json:"source_fields" yaml:"source_fields"`

	// ExpressionText is set when the column is not a plain column reference.
	ExpressionText string `json:"expression_text,omitempty" yaml:"expression_text,omitempty"`
	IsAggregate    bool   `json:"is_aggregate" yaml:"is_aggregate"`
}

// AddSourceField appends name unless it is empty or already present.
func (d *FieldDependency) AddSourceField(name string) {
	if name == "" || slices.Contains(d.SourceFields, name) {
		return
	}
	d.SourceFields = append(d.SourceFields, name)
}

// LineageResult is the outcome of analyzing one SQL statement.
//
// Success is false whenever Error is set.
type LineageResult struct {
	SQL               string             `json:"sql" yaml:"sql"`
	DBType            string             `json:"db_type" yaml:"db_type"`
	Tables            []string           `json:"tables" yaml:"tables"`
	FieldDependencies []*FieldDependency `json:"field_dependencies" yaml:"field_dependencies"`
	Success           bool               `json:"success" yaml:"success"`
	Error             string             `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewLineageResult returns an empty, successful result for sql.
func NewLineageResult(sql, dbType string) *LineageResult {
	return &LineageResult{
		SQL:               sql,
		DBType:            dbType,
		Tables:            []string{},
		FieldDependencies: []*FieldDependency{},
		Success:           true,
	}
}

// AddTable records a touched table, keeping first-seen order.
// It reports whether the table was new.
func (r *LineageResult) AddTable(name string) bool {
	if name == "" || slices.Contains(r.Tables, name) {
		return false
	}
	r.Tables = append(r.Tables, name)
	return true
}

// AddFieldDependency appends a dependency.
func (r *LineageResult) AddFieldDependency(dep *FieldDependency) {
	r.FieldDependencies = append(r.FieldDependencies, dep)
}

// SetError marks the result as failed.
func (r *LineageResult) SetError(msg string) {
	r.Error = msg
	r.Success = false
}

// Dependency returns the first dependency whose target name matches, or nil.
func (r *LineageResult) Dependency(target string) *FieldDependency {
	for _, dep := range r.FieldDependencies {
		if dep.TargetName == target {
			return dep
		}
	}
	return nil
}

// truncate drops every dependency after the first n.
func (r *LineageResult) truncate(n int) int {
	removed := len(r.FieldDependencies) - n
	if removed <= 0 {
		return 0
	}
	clear(r.FieldDependencies[n:])
	r.FieldDependencies = r.FieldDependencies[:n]
	return removed
}
