package lineage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/leapstack-labs/fieldlineage/pkg/parser"
	"golang.org/x/sync/errgroup"
)

// Error messages carried in LineageResult.Error.
const (
	MsgOnlySelect     = "Only SELECT statements are supported"
	MsgAnalysisFailed = "Analysis failed: "
)

// ErrSQLRequired is reported when the SQL text is blank.
var ErrSQLRequired = errors.New("SQL cannot be blank")

// Analyzer runs lineage analysis. It holds no per-run state, so one
// Analyzer may serve concurrent calls.
type Analyzer struct {
	logger      *slog.Logger
	concurrency int
	onResult    func(index int, r *LineageResult)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithConcurrency bounds the number of statements AnalyzeBatch runs at
// once. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithBatchCallback registers fn to be called as each batch item finishes.
// fn may be called from several goroutines at once.
func WithBatchCallback(fn func(index int, r *LineageResult)) Option {
	return func(a *Analyzer) {
		a.onResult = fn
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		logger:      slog.New(slog.DiscardHandler),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze extracts lineage from the first statement of sql. It never
// panics or returns an error; failures are reported on the result.
func (a *Analyzer) Analyze(ctx context.Context, sql, dbType string) (result *LineageResult) {
	result = NewLineageResult(sql, dbType)
	defer func() {
		if r := recover(); r != nil {
			a.fail(result, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		a.fail(result, err)
		return result
	}
	if strings.TrimSpace(sql) == "" {
		a.fail(result, ErrSQLRequired)
		return result
	}

	d, err := dialect.Resolve(dbType)
	if err != nil {
		a.fail(result, err)
		return result
	}
	result.DBType = d.Name

	stmts, err := parser.Parse(sql, d)
	if err != nil {
		a.fail(result, err)
		return result
	}
	if len(stmts) == 0 {
		a.fail(result, ErrSQLRequired)
		return result
	}
	if len(stmts) > 1 {
		a.logger.Warn("only the first statement is analyzed",
			slog.Int("statements", len(stmts)))
	}

	sel, ok := stmts[0].(*parser.SelectStmt)
	if !ok {
		result.SetError(MsgOnlySelect)
		a.logger.Warn("non-SELECT statement provided", slog.String("kind", stmts[0].Kind()))
		return result
	}

	a.run(sel, d, result)
	return result
}

// AnalyzeStatement runs the engine on an already parsed query.
func (a *Analyzer) AnalyzeStatement(stmt *parser.SelectStmt, d *dialect.Dialect) *LineageResult {
	result := NewLineageResult(parser.Format(stmt), "")
	if d == nil {
		a.fail(result, dialect.ErrDialectRequired)
		return result
	}
	result.DBType = d.Name
	if stmt == nil {
		a.fail(result, ErrSQLRequired)
		return result
	}
	a.run(stmt, d, result)
	return result
}

func (a *Analyzer) run(stmt *parser.SelectStmt, d *dialect.Dialect, result *LineageResult) {
	e := newEngine(d, result, a.logger)
	e.run(stmt)
	a.logger.Debug("analyzed SQL",
		slog.String("dialect", d.Name),
		slog.Int("tables", len(result.Tables)),
		slog.Int("fields", len(result.FieldDependencies)),
	)
}

// fail records err on result and drops any partial lineage.
func (a *Analyzer) fail(result *LineageResult, err error) {
	result.Tables = []string{}
	result.FieldDependencies = []*FieldDependency{}
	result.SetError(MsgAnalysisFailed + err.Error())
	a.logger.Warn("analysis failed", slog.String("error", err.Error()))
}

// AnalyzeBatch analyzes every statement independently and returns the
// results in input order. A failing statement does not affect the others.
// Statements not yet started when ctx is cancelled fail with the context error.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, sqls []string, dbType string) []*LineageResult {
	results := make([]*LineageResult, len(sqls))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, sql := range sqls {
		g.Go(func() error {
			results[i] = a.Analyze(ctx, sql, dbType)
			if a.onResult != nil {
				a.onResult(i, results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// SupportedDialects returns the canonical names of the supported database types.
func SupportedDialects() []string {
	return dialect.List()
}

// IsSupported reports whether dbType names a supported database type.
func IsSupported(dbType string) bool {
	return dialect.IsSupported(dbType)
}
