package commands

import (
	"fmt"
	"os"

	"github.com/gosuri/uiprogress"
	"github.com/leapstack-labs/fieldlineage/internal/export"
	"github.com/leapstack-labs/fieldlineage/internal/lineage"
	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/leapstack-labs/fieldlineage/pkg/parser"
	"github.com/spf13/cobra"
)

// batchEntry is one statement of a batch run.
type batchEntry struct {
	File      string                 `json:"file" yaml:"file"`
	Statement int                    `json:"statement" yaml:"statement"`
	Result    *lineage.LineageResult `json:"result" yaml:"result"`
}

func (e batchEntry) name() string {
	return fmt.Sprintf("%s #%d", e.File, e.Statement)
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	var summaryOnly bool

	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Analyze every statement in one or more SQL files",
		Long: `Split each file into statements and analyze them in parallel.

Each statement is analyzed on its own, so a failing statement does not
affect the others. The report lists the lineage of every statement followed
by a summary of how many succeeded. The command fails when any statement
failed.`,
		Example: `  # Analyze all statements in two scripts
  fieldlineage batch models/orders.sql models/users.sql

  # Only print one status line per statement
  fieldlineage batch --summary-only *.sql`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, summaryOnly)
		},
	}

	cmd.Flags().BoolVar(&summaryOnly, "summary-only", false, "Print one status line per statement instead of full reports")

	return cmd
}

func runBatch(cmd *cobra.Command, files []string, summaryOnly bool) error {
	ctx := cmd.Context()
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	d, err := dialect.Resolve(cc.Cfg.DBType)
	if err != nil {
		return err
	}

	entries, sqls, err := splitFiles(files, d)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		r.Warning("no statements found")
		return nil
	}

	var opts []lineage.Option
	showProgress := r.IsTTY() && !r.Structured()
	if showProgress {
		uiprogress.Start()
		bar := uiprogress.AddBar(len(sqls)).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return fmt.Sprintf("Analyzing (%d/%d)", b.Current(), len(sqls))
		})
		opts = append(opts, lineage.WithBatchCallback(func(int, *lineage.LineageResult) {
			bar.Incr()
		}))
	}

	results := cc.Analyzer(opts...).AnalyzeBatch(ctx, sqls, cc.Cfg.DBType)
	if showProgress {
		uiprogress.Stop()
	}

	failed := 0
	for i := range entries {
		entries[i].Result = results[i]
		if !results[i].Success {
			failed++
		}
	}
	cc.Record(ctx, results...)

	if r.Structured() {
		if err := r.Encode(entries); err != nil {
			return fmt.Errorf("failed to render results: %w", err)
		}
	} else {
		for _, e := range entries {
			if summaryOnly {
				writeStatus(cc, e.name(), e.Result)
				continue
			}
			r.Header(2, e.name())
			if err := r.Result(e.Result); err != nil {
				return fmt.Errorf("failed to render %s: %w", e.name(), err)
			}
			r.Println()
		}
		summary := fmt.Sprintf("%d ok, %d failed", len(entries)-failed, failed)
		if failed > 0 {
			r.Error(summary)
		} else {
			r.Success(summary)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d statements", ErrAnalysisFailed, failed, len(entries))
	}
	return nil
}

// splitFiles reads files and splits them into statements in file order.
func splitFiles(files []string, d *dialect.Dialect) ([]batchEntry, []string, error) {
	var (
		entries []batchEntry
		sqls    []string
	)
	for _, path := range files {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the user
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for i, stmt := range parser.SplitStatements(string(data), d) {
			entries = append(entries, batchEntry{File: path, Statement: i + 1})
			sqls = append(sqls, stmt)
		}
	}
	return entries, sqls, nil
}

// writeStatus prints a one-line outcome for result.
func writeStatus(cc *CommandContext, name string, result *lineage.LineageResult) {
	if result.Success {
		cc.Renderer.StatusLine(name, "success", export.Summary(result))
		return
	}
	cc.Renderer.StatusLine(name, "error", result.Error)
}
