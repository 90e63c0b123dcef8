// Package lineage extracts field-level lineage from a single SQL SELECT.
//
// For every output column the engine reports the source table, the source
// columns it reads, whether it goes through an aggregate, and the
// expression that produced it. SQL is parsed with pkg/parser; nothing is
// executed.
//
// # Basic Usage
//
//	a := lineage.NewAnalyzer(lineage.WithLogger(logger))
//	result := a.Analyze(ctx, "SELECT u.id, COUNT(*) AS n FROM users u GROUP BY u.id", "mysql")
//	if !result.Success {
//	    log.Fatal(result.Error)
//	}
//
//	for _, dep := range result.FieldDependencies {
//	    fmt.Printf("%s <- %s %v\n", dep.TargetName, dep.SourceTable, dep.SourceFields)
//	}
//
// # Traversal Rules
//
// The FROM clause is visited before the select list so that table aliases
// are known when columns are resolved. Joins contribute both sides and
// their ON/USING predicates are ignored. A derived table is analyzed for
// its tables only; its own dependencies are discarded and its alias becomes
// an opaque pseudo-table for the enclosing query.
//
// Column references, wildcards and aggregate calls are followed. Any other
// expression is recorded by its text without looking inside it.
package lineage
