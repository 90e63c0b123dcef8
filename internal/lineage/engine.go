package lineage

import (
	"log/slog"
	"maps"
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/leapstack-labs/fieldlineage/pkg/parser"
)

// scope is the table context established by a FROM clause. Unqualified
// columns in the select list default to it.
type scope struct {
	table string
	alias string
}

// engine walks one parsed query and fills a LineageResult.
// A new engine is built for every run.
type engine struct {
	dialect *dialect.Dialect
	aliases *AliasState
	result  *LineageResult
	logger  *slog.Logger

	// ctes holds the folded names of CTEs visible to the query.
	ctes map[string]struct{}
}

func newEngine(d *dialect.Dialect, result *LineageResult, logger *slog.Logger) *engine {
	return &engine{
		dialect: d,
		aliases: NewAliasState(),
		result:  result,
		logger:  logger,
		ctes:    make(map[string]struct{}),
	}
}

// run analyzes stmt into the engine's result.
func (e *engine) run(stmt *parser.SelectStmt) {
	e.aliases.Clear()
	e.visitQuery(stmt)
}

// visitQuery visits a query with its WITH clause. CTE bodies contribute
// tables but not dependencies, like derived tables. CTE names are visible
// only inside the query that declares them; a recursive CTE also sees its
// own name.
func (e *engine) visitQuery(stmt *parser.SelectStmt) {
	if stmt == nil {
		return
	}
	if stmt.With != nil {
		outer := maps.Clone(e.ctes)
		defer func() { e.ctes = outer }()

		for _, cte := range stmt.With.CTEs {
			if stmt.With.Recursive {
				e.registerCTE(cte.Name)
			}
			e.visitDetached(cte.Select)
			e.registerCTE(cte.Name)
		}
	}
	e.visitBody(stmt.Body)
}

func (e *engine) registerCTE(name string) {
	key := e.aliases.key(name)
	if _, ok := e.ctes[key]; ok {
		return
	}
	e.ctes[key] = struct{}{}
	e.logger.Debug("registered CTE", slog.String("name", name))
}

// visitDetached visits a nested query for its tables and drops the
// dependencies it produced.
func (e *engine) visitDetached(stmt *parser.SelectStmt) {
	mark := len(e.result.FieldDependencies)
	e.visitQuery(stmt)
	if removed := e.result.truncate(mark); removed > 0 {
		e.logger.Debug("discarded nested dependencies", slog.Int("count", removed))
	}
}

// visitBody visits every branch of a set operation in order.
func (e *engine) visitBody(body *parser.SelectBody) {
	for body != nil {
		if body.Paren != nil {
			e.visitQuery(body.Paren)
		} else {
			e.visitSelectBlock(body.Left)
		}
		body = body.Right
	}
}

// visitSelectBlock visits FROM first, then each select item in order.
func (e *engine) visitSelectBlock(core *parser.SelectCore) {
	if core == nil {
		return
	}
	var sc scope
	if core.From != nil {
		sc = e.visitTableRef(core.From, sc)
	}
	for _, item := range core.Columns {
		e.visitSelectItem(item, sc)
	}
}

// ---------- Table sources ----------

// visitTableRef visits a table source and returns the resulting context.
func (e *engine) visitTableRef(ref parser.TableRef, sc scope) scope {
	switch t := ref.(type) {
	case *parser.TableName:
		return e.visitTableName(t)

	case *parser.JoinExpr:
		// ON and USING only constrain the join.
		sc = e.visitTableRef(t.Left, sc)
		return e.visitTableRef(t.Right, sc)

	case *parser.DerivedTable:
		e.visitDetached(t.Select)
		if t.Alias == "" {
			return scope{}
		}
		e.aliases.RegisterTableAlias(t.Alias, t.Alias)
		e.logger.Debug("registered derived table", slog.String("alias", t.Alias))
		return scope{table: t.Alias, alias: t.Alias}

	case *parser.LateralView:
		// Generated columns stay attributed to the exploded table unless
		// qualified with the view alias.
		sc = e.visitTableRef(t.Source, sc)
		if t.Alias != "" {
			e.aliases.RegisterTableAlias(t.Alias, t.Alias)
		}
		return sc

	default:
		return sc
	}
}

func (e *engine) visitTableName(t *parser.TableName) scope {
	name := t.QualifiedName()

	if _, isCTE := e.ctes[e.aliases.key(name)]; isCTE {
		e.logger.Debug("found CTE reference", slog.String("name", name))
	} else if e.result.AddTable(name) {
		e.logger.Debug("found table", slog.String("table", name), slog.String("alias", t.Alias))
	}

	if t.Alias == "" {
		return scope{table: name, alias: name}
	}
	e.aliases.RegisterTableAlias(t.Alias, name)
	return scope{table: name, alias: t.Alias}
}

// ---------- Select items ----------

func (e *engine) visitSelectItem(item parser.SelectItem, sc scope) {
	expr := unparen(item.Expr)
	dep := &FieldDependency{SourceFields: []string{}}

	if item.Alias != "" {
		dep.TargetName = item.Alias
		dep.TargetAlias = item.Alias
		e.aliases.RegisterColumnAlias(item.Alias, parser.Format(expr))
	} else {
		dep.TargetName = targetName(expr)
	}

	e.visitExpr(expr, dep)

	if dep.SourceTable == "" {
		dep.SourceTable = sc.table
		dep.SourceTableAlias = sc.alias
	}

	e.result.AddFieldDependency(dep)
	e.logger.Debug("added field dependency",
		slog.String("target", dep.TargetName),
		slog.String("source_table", dep.SourceTable),
		slog.Any("source_fields", dep.SourceFields),
	)
}

// targetName names an unaliased select item.
func targetName(expr parser.Expr) string {
	switch x := expr.(type) {
	case *parser.ColumnRef:
		return x.Column
	case *parser.StarExpr:
		return "*"
	default:
		return parser.Format(expr)
	}
}

// ---------- Expressions ----------

// visitExpr collects the sources of expr into dep. Only column references,
// wildcards and aggregate calls are followed.
func (e *engine) visitExpr(expr parser.Expr, dep *FieldDependency) {
	switch x := expr.(type) {
	case nil:

	case *parser.ColumnRef:
		dep.AddSourceField(x.Column)
		if owner := x.Owner(); owner != "" {
			e.qualify(dep, owner)
		}

	case *parser.StarExpr:
		dep.AddSourceField("*")
		if x.Table != "" {
			e.qualify(dep, x.Table)
		}

	case *parser.ParenExpr:
		e.visitExpr(unparen(x), dep)

	case *parser.FuncCall:
		if !e.isAggregate(x) {
			e.visitOther(x, dep)
			return
		}
		dep.IsAggregate = true
		dep.ExpressionText = parser.Format(x)
		if x.Star {
			dep.AddSourceField("*")
		}
		for _, arg := range x.Args {
			e.visitExpr(unparen(arg), dep)
		}

	default:
		e.visitOther(x, dep)
	}
}

// visitOther records the text of an expression that is not followed.
// Inside an aggregate the aggregate's own text is kept.
func (e *engine) visitOther(expr parser.Expr, dep *FieldDependency) {
	if dep.ExpressionText == "" {
		dep.ExpressionText = parser.Format(expr)
	}
}

// qualify sets the source table from a column qualifier as written.
func (e *engine) qualify(dep *FieldDependency, owner string) {
	dep.SourceTable = e.aliases.ResolveTableAlias(owner)
	dep.SourceTableAlias = owner
}

// isAggregate reports whether f is a plain aggregate call. Window calls
// are not aggregates here even when the function is.
func (e *engine) isAggregate(f *parser.FuncCall) bool {
	if f.Over != nil {
		return false
	}
	name := f.Name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return e.dialect.IsAggregate(name)
}

func unparen(expr parser.Expr) parser.Expr {
	for {
		p, ok := expr.(*parser.ParenExpr)
		if !ok {
			return expr
		}
		expr = p.Expr
	}
}
