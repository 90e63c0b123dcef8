package parser

import (
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// Format returns the canonical single-line text of an AST node: keywords
// upper-cased, identifiers and function names as written. It accepts any
// Statement, Expr or TableRef and returns "" for nil.
//
//	Format(expr) // "SUM(amount)", "price * quantity", "COUNT(*)"
func Format(node any) string {
	pr := &printer{}
	pr.node(node)
	return pr.sb.String()
}

// FormatStatement pretty-prints a statement over multiple lines, one
// clause per line and one select item per line.
func FormatStatement(stmt Statement) string {
	pr := &printer{pretty: true}
	pr.node(stmt)
	return pr.sb.String()
}

type printer struct {
	sb     strings.Builder
	pretty bool
	depth  int
}

func (pr *printer) write(parts ...string) {
	for _, s := range parts {
		pr.sb.WriteString(s)
	}
}

// clause starts a new clause: a newline at the current depth when pretty
// printing, otherwise a single space.
func (pr *printer) clause() {
	if pr.pretty {
		pr.write("\n", strings.Repeat("  ", pr.depth))
		return
	}
	pr.write(" ")
}

// item separates select items.
func (pr *printer) item(first bool) {
	switch {
	case pr.pretty:
		if !first {
			pr.write(",")
		}
		pr.write("\n", strings.Repeat("  ", pr.depth+1))
	case first:
		pr.write(" ")
	default:
		pr.write(", ")
	}
}

func (pr *printer) node(node any) {
	switch n := node.(type) {
	case nil:
	case *SelectStmt:
		pr.selectStmt(n)
	case *OtherStmt:
		if n != nil {
			pr.write(n.Text)
		}
	case Expr:
		pr.expr(n)
	case TableRef:
		pr.tableRef(n)
	}
}

// ---------- Statements ----------

func (pr *printer) selectStmt(s *SelectStmt) {
	if s == nil {
		return
	}
	if s.With != nil {
		pr.write("WITH ")
		if s.With.Recursive {
			pr.write("RECURSIVE ")
		}
		for i, cte := range s.With.CTEs {
			if i > 0 {
				pr.write(", ")
			}
			pr.write(cte.Name)
			if len(cte.Columns) > 0 {
				pr.write(" (", strings.Join(cte.Columns, ", "), ")")
			}
			pr.write(" AS ")
			pr.subquery(cte.Select)
		}
		pr.clause()
	}
	pr.selectBody(s.Body)
}

// subquery prints a parenthesised query, nested one level when pretty printing.
func (pr *printer) subquery(s *SelectStmt) {
	pr.write("(")
	if pr.pretty {
		pr.depth++
		pr.write("\n", strings.Repeat("  ", pr.depth))
		pr.selectStmt(s)
		pr.depth--
		pr.write("\n", strings.Repeat("  ", pr.depth))
	} else {
		pr.selectStmt(s)
	}
	pr.write(")")
}

func (pr *printer) selectBody(b *SelectBody) {
	if b == nil {
		return
	}
	if b.Paren != nil {
		pr.subquery(b.Paren)
	} else {
		pr.selectCore(b.Left)
	}
	if b.Op == SetOpNone || b.Right == nil {
		return
	}
	pr.clause()
	pr.write(string(b.Op))
	if b.All {
		pr.write(" ALL")
	}
	pr.clause()
	pr.selectBody(b.Right)
}

func (pr *printer) selectCore(c *SelectCore) {
	if c == nil {
		return
	}
	pr.write("SELECT")
	if c.Distinct {
		pr.write(" DISTINCT")
	}
	if c.Top != nil {
		pr.write(" TOP ")
		pr.expr(c.Top)
	}
	for i, item := range c.Columns {
		pr.item(i == 0)
		pr.expr(item.Expr)
		if item.Alias != "" {
			pr.write(" AS ", item.Alias)
		}
	}
	if c.From != nil {
		pr.clause()
		pr.write("FROM ")
		pr.tableRef(c.From)
	}
	if c.Where != nil {
		pr.clause()
		pr.write("WHERE ")
		pr.expr(c.Where)
	}
	if len(c.GroupBy) > 0 {
		pr.clause()
		pr.write("GROUP BY ")
		pr.exprList(c.GroupBy)
	}
	if c.Having != nil {
		pr.clause()
		pr.write("HAVING ")
		pr.expr(c.Having)
	}
	if len(c.OrderBy) > 0 {
		pr.clause()
		pr.write("ORDER BY ")
		pr.orderBy(c.OrderBy)
	}
	if c.Limit != nil {
		pr.clause()
		pr.write("LIMIT ")
		pr.expr(c.Limit)
	}
	if c.Offset != nil {
		pr.clause()
		pr.write("OFFSET ")
		pr.expr(c.Offset)
	}
	for _, lock := range c.Locks {
		pr.clause()
		pr.write(lock)
	}
}

func (pr *printer) orderBy(items []OrderByItem) {
	for i, item := range items {
		if i > 0 {
			pr.write(", ")
		}
		pr.expr(item.Expr)
		if item.Desc {
			pr.write(" DESC")
		}
		if item.NullsFirst != nil {
			if *item.NullsFirst {
				pr.write(" NULLS FIRST")
			} else {
				pr.write(" NULLS LAST")
			}
		}
	}
}

// ---------- Table Sources ----------

func (pr *printer) tableRef(t TableRef) {
	switch t := t.(type) {
	case *TableName:
		pr.write(t.QualifiedName())
		if t.Alias != "" {
			pr.write(" AS ", t.Alias)
		}
		if len(t.Hints) > 0 {
			pr.write(" WITH (", strings.Join(t.Hints, ", "), ")")
		}
	case *LateralView:
		pr.tableRef(t.Source)
		pr.write(" LATERAL VIEW ")
		if t.Outer {
			pr.write("OUTER ")
		}
		pr.funcCall(t.Func)
		if t.Alias != "" {
			pr.write(" ", t.Alias)
		}
		if len(t.Columns) > 0 {
			pr.write(" AS ", strings.Join(t.Columns, ", "))
		}
	case *DerivedTable:
		if t.Lateral {
			pr.write("LATERAL ")
		}
		pr.subquery(t.Select)
		if t.Alias != "" {
			pr.write(" AS ", t.Alias)
		}
		if len(t.Columns) > 0 {
			pr.write(" (", strings.Join(t.Columns, ", "), ")")
		}
	case *JoinExpr:
		pr.tableRef(t.Left)
		if t.Type == JoinComma {
			pr.write(", ")
			pr.tableRef(t.Right)
			return
		}
		if pr.pretty {
			pr.depth++
			pr.clause()
			pr.depth--
		} else {
			pr.write(" ")
		}
		if t.Natural {
			pr.write("NATURAL ")
		}
		if t.Type != JoinInner {
			pr.write(string(t.Type), " ")
		}
		pr.write("JOIN ")
		pr.tableRef(t.Right)
		if t.Condition != nil {
			pr.write(" ON ")
			pr.expr(t.Condition)
		}
		if len(t.Using) > 0 {
			pr.write(" USING (", strings.Join(t.Using, ", "), ")")
		}
	}
}

// ---------- Expressions ----------

func (pr *printer) exprList(exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			pr.write(", ")
		}
		pr.expr(e)
	}
}

func (pr *printer) expr(e Expr) {
	switch e := e.(type) {
	case nil:
	case *ColumnRef:
		pr.write(joinNonEmpty(e.Schema, e.Table, e.Column))
	case *StarExpr:
		if e.Table != "" {
			pr.write(e.Table, ".")
		}
		pr.write("*")
	case *Literal:
		pr.literal(e)
	case *BinaryExpr:
		pr.expr(e.Left)
		pr.write(" ", e.Op.String(), " ")
		pr.expr(e.Right)
	case *UnaryExpr:
		pr.write(e.Op.String())
		if e.Op == token.NOT {
			pr.write(" ")
		}
		pr.expr(e.Expr)
	case *ParenExpr:
		pr.write("(")
		pr.expr(e.Expr)
		pr.write(")")
	case *ListExpr:
		pr.write("(")
		pr.exprList(e.Items)
		pr.write(")")
	case *FuncCall:
		pr.funcCall(e)
	case *CaseExpr:
		pr.write("CASE ")
		if e.Operand != nil {
			pr.expr(e.Operand)
			pr.write(" ")
		}
		for _, w := range e.Whens {
			pr.write("WHEN ")
			pr.expr(w.Condition)
			pr.write(" THEN ")
			pr.expr(w.Result)
			pr.write(" ")
		}
		if e.Else != nil {
			pr.write("ELSE ")
			pr.expr(e.Else)
			pr.write(" ")
		}
		pr.write("END")
	case *CastExpr:
		if e.Postfix {
			pr.expr(e.Expr)
			pr.write("::", e.Type)
			return
		}
		pr.write("CAST(")
		pr.expr(e.Expr)
		pr.write(" AS ", e.Type, ")")
	case *InExpr:
		pr.expr(e.Expr)
		pr.write(not(e.Not), " IN ")
		if e.Query != nil {
			pr.subquery(e.Query)
			return
		}
		pr.write("(")
		pr.exprList(e.Values)
		pr.write(")")
	case *BetweenExpr:
		pr.expr(e.Expr)
		pr.write(not(e.Not), " BETWEEN ")
		pr.expr(e.Low)
		pr.write(" AND ")
		pr.expr(e.High)
	case *IsExpr:
		pr.expr(e.Expr)
		pr.write(" IS")
		if e.Not {
			pr.write(" NOT")
		}
		pr.write(" ", e.Value)
	case *LikeExpr:
		pr.expr(e.Expr)
		pr.write(not(e.Not), " ", e.Op.String(), " ")
		pr.expr(e.Pattern)
	case *SubqueryExpr:
		pr.subquery(e.Select)
	case *ExistsExpr:
		if e.Not {
			pr.write("NOT ")
		}
		pr.write("EXISTS ")
		pr.subquery(e.Select)
	case *IntervalExpr:
		pr.write("INTERVAL ")
		pr.expr(e.Value)
		if e.Unit != "" {
			pr.write(" ", e.Unit)
		}
	case *Placeholder:
		pr.write(e.Text)
	case *CollateExpr:
		pr.expr(e.Expr)
		pr.write(" COLLATE ", e.Collation)
	}
}

func (pr *printer) literal(l *Literal) {
	switch l.Kind {
	case LiteralString:
		pr.write(quoteString(l.Value))
	case LiteralBool, LiteralNull:
		pr.write(strings.ToUpper(l.Value))
	default:
		pr.write(l.Value)
	}
}

func (pr *printer) funcCall(f *FuncCall) {
	pr.write(f.Name, "(")
	if f.Star {
		pr.write("*")
	}
	if f.Distinct {
		pr.write("DISTINCT ")
	}
	if f.Modifier != "" {
		pr.write(f.Modifier, " ")
	}
	for i, arg := range f.Args {
		if i > 0 {
			if i < len(f.ArgKeywords) && f.ArgKeywords[i] != "" {
				pr.write(" ", f.ArgKeywords[i], " ")
			} else {
				pr.write(", ")
			}
		}
		pr.expr(arg)
	}
	if len(f.OrderBy) > 0 && !f.Within {
		pr.write(" ORDER BY ")
		pr.orderBy(f.OrderBy)
	}
	pr.write(")")

	if f.Within {
		pr.write(" WITHIN GROUP (ORDER BY ")
		pr.orderBy(f.OrderBy)
		pr.write(")")
	}
	if f.Filter != nil {
		pr.write(" FILTER (WHERE ")
		pr.expr(f.Filter)
		pr.write(")")
	}
	if f.Over != nil {
		pr.write(" OVER ")
		pr.window(f.Over)
	}
}

func (pr *printer) window(w *WindowSpec) {
	if w.Name != "" && len(w.PartitionBy) == 0 && len(w.OrderBy) == 0 && w.Frame == "" {
		pr.write(w.Name)
		return
	}
	var parts []string
	if w.Name != "" {
		parts = append(parts, w.Name)
	}
	if len(w.PartitionBy) > 0 {
		sub := &printer{}
		sub.exprList(w.PartitionBy)
		parts = append(parts, "PARTITION BY "+sub.sb.String())
	}
	if len(w.OrderBy) > 0 {
		sub := &printer{}
		sub.orderBy(w.OrderBy)
		parts = append(parts, "ORDER BY "+sub.sb.String())
	}
	if w.Frame != "" {
		parts = append(parts, w.Frame)
	}
	pr.write("(", strings.Join(parts, " "), ")")
}

func not(negated bool) string {
	if negated {
		return " NOT"
	}
	return ""
}

// quoteString returns s as a single-quoted SQL string literal.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
