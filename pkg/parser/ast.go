package parser

import (
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/token"
)

// Statement represents a SQL statement.
// Implemented by *SelectStmt and *OtherStmt.
type Statement interface {
	stmtNode()
	// Kind returns the leading statement keyword in upper case ("SELECT", "INSERT", ...).
	Kind() string
}

// Expr represents an expression in SQL.
type Expr interface {
	exprNode()
}

// TableRef represents a table source in a FROM clause.
// Implemented by *TableName, *JoinExpr, *DerivedTable and *LateralView.
type TableRef interface {
	tableRefNode()
}

// ---------- Statement Types ----------

// SelectStmt represents a complete SELECT statement with optional WITH clause.
type SelectStmt struct {
	Pos  token.Pos
	With *WithClause
	Body *SelectBody
}

func (*SelectStmt) stmtNode() {}

// Kind implements Statement.
func (*SelectStmt) Kind() string { return "SELECT" }

// OtherStmt is any statement that is not a query. Its body is not parsed.
type OtherStmt struct {
	Pos     token.Pos
	Keyword string // upper-case leading keyword, e.g. "INSERT"
	Text    string // raw statement text
}

func (*OtherStmt) stmtNode() {}

// Kind implements Statement.
func (s *OtherStmt) Kind() string { return s.Keyword }

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a common table expression.
type CTE struct {
	Name    string
	Columns []string
	Select  *SelectStmt
}

// SelectBody represents the body of a SELECT with possible set operations.
// Exactly one of Left and Paren is set.
type SelectBody struct {
	Left  *SelectCore
	Paren *SelectStmt // parenthesised query used as an operand
	Op    SetOpType
	All   bool
	Right *SelectBody
}

// SetOpType represents the type of set operation.
type SetOpType string

// Set operations.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectCore represents a single SELECT query block.
type SelectCore struct {
	Distinct bool
	Top      Expr
	Columns  []SelectItem
	From     TableRef // nil when the query has no FROM clause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
	Locks    []string // row locking clauses as written, e.g. "FOR UPDATE NOWAIT"
}

// SelectItem is one entry of the select list.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// OrderByItem represents an ORDER BY item.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool
}

// ---------- Table Sources ----------

// TableName represents a table reference, optionally qualified.
type TableName struct {
	Catalog string
	Schema  string
	Name    string
	Alias   string
	Hints   []string // SQL Server table hints: WITH (NOLOCK)
}

func (*TableName) tableRefNode() {}

// QualifiedName returns the dotted name as written, without the alias.
func (t *TableName) QualifiedName() string {
	return joinNonEmpty(t.Catalog, t.Schema, t.Name)
}

// JoinType represents the type of join.
type JoinType string

// Join types. JoinComma is the implicit cross join of a comma-separated FROM list.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// JoinExpr joins two table sources. Joins nest to the left:
// a JOIN b JOIN c is JoinExpr{Left: JoinExpr{a, b}, Right: c}.
type JoinExpr struct {
	Left      TableRef
	Right     TableRef
	Type      JoinType
	Natural   bool
	Condition Expr
	Using     []string
}

func (*JoinExpr) tableRefNode() {}

// DerivedTable represents a subquery in FROM.
type DerivedTable struct {
	Lateral bool
	Select  *SelectStmt
	Alias   string
	Columns []string
}

func (*DerivedTable) tableRefNode() {}

// LateralView applies a table-generating function to each row of Source
// (Hive LATERAL VIEW explode(tags) t AS tag).
type LateralView struct {
	Source  TableRef
	Outer   bool
	Func    *FuncCall
	Alias   string
	Columns []string
}

func (*LateralView) tableRefNode() {}

// ---------- Expressions ----------

// ColumnRef is a column reference. Table is empty for a bare identifier.
type ColumnRef struct {
	Schema string
	Table  string
	Column string
}

func (*ColumnRef) exprNode() {}

// Owner returns the qualifier in front of the column, e.g. "u" for u.id
// and "s.t" for s.t.c.
func (c *ColumnRef) Owner() string {
	return joinNonEmpty(c.Schema, c.Table)
}

// StarExpr is * or table.*.
type StarExpr struct {
	Table string
}

func (*StarExpr) exprNode() {}

// LiteralKind classifies literals.
type LiteralKind int

// Literal kinds.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNull
	LiteralRaw // printed verbatim, e.g. a type name inside TRY_CAST(x AS INT)
)

// Literal represents a literal value.
type Literal struct {
	Kind  LiteralKind
	Value string
}

func (*Literal) exprNode() {}

// BinaryExpr represents a binary operation.
type BinaryExpr struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary operation.
type UnaryExpr struct {
	Op   token.TokenType
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// ParenExpr is a parenthesised expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) exprNode() {}

// ListExpr is a parenthesised row value, e.g. (a, b).
type ListExpr struct {
	Items []Expr
}

func (*ListExpr) exprNode() {}

// FuncCall represents a function call.
type FuncCall struct {
	Name     string // as written, possibly qualified
	Distinct bool
	Modifier string // BOTH, LEADING or TRAILING in TRIM
	Args     []Expr
	// ArgKeywords holds, per argument, the keyword that introduced it in
	// place of a comma: EXTRACT(YEAR FROM d) has ["", "FROM"]. Nil when
	// every argument is comma separated.
	ArgKeywords []string
	Star        bool          // COUNT(*)
	OrderBy     []OrderByItem // STRING_AGG(x, ',' ORDER BY y), WITHIN GROUP (ORDER BY y)
	Within      bool          // OrderBy came from WITHIN GROUP
	Filter      Expr
	Over        *WindowSpec
}

func (*FuncCall) exprNode() {}

// WindowSpec is the OVER clause of a window call.
type WindowSpec struct {
	Name        string // OVER w
	PartitionBy []Expr
	OrderBy     []OrderByItem
	Frame       string // frame clause as written, upper-cased keywords
}

// CaseExpr represents a CASE expression.
type CaseExpr struct {
	Operand Expr
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// WhenClause represents WHEN condition THEN result.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr represents CAST(expr AS type) or expr::type.
type CastExpr struct {
	Expr    Expr
	Type    string
	Postfix bool
}

func (*CastExpr) exprNode() {}

// InExpr represents expr [NOT] IN (values | subquery).
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

func (*InExpr) exprNode() {}

// BetweenExpr represents expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) exprNode() {}

// IsExpr represents expr IS [NOT] NULL|TRUE|FALSE.
type IsExpr struct {
	Expr  Expr
	Not   bool
	Value string
}

func (*IsExpr) exprNode() {}

// LikeExpr represents expr [NOT] LIKE|ILIKE pattern.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Op      token.TokenType
	Pattern Expr
}

func (*LikeExpr) exprNode() {}

// SubqueryExpr is a scalar subquery.
type SubqueryExpr struct {
	Select *SelectStmt
}

func (*SubqueryExpr) exprNode() {}

// ExistsExpr represents [NOT] EXISTS (subquery).
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (*ExistsExpr) exprNode() {}

// IntervalExpr represents INTERVAL 'value' unit.
type IntervalExpr struct {
	Value Expr
	Unit  string
}

func (*IntervalExpr) exprNode() {}

// Placeholder is a bind parameter kept as written: ?, $1, :name, @name.
type Placeholder struct {
	Text string
}

func (*Placeholder) exprNode() {}

// CollateExpr is expr COLLATE collation.
type CollateExpr struct {
	Expr      Expr
	Collation string
}

func (*CollateExpr) exprNode() {}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}
