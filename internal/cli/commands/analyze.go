package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "analyze [sql]",
		Short: "Extract field-level lineage from a SELECT statement",
		Long: `Analyze a SELECT statement and report, for every output column, the
source table and fields it is derived from and how it is derived.

The SQL is taken from the arguments, from --file, or from stdin. Only the
first statement is analyzed. Each run is recorded in the history database
unless --no-history is set.`,
		Example: `  # Analyze a query given inline
  fieldlineage analyze "SELECT u.id, COUNT(*) AS n FROM users u GROUP BY u.id"

  # Analyze a PostgreSQL file as JSON
  fieldlineage analyze -d postgresql -f report.sql -o json

  # Read from stdin
  cat query.sql | fieldlineage analyze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read SQL from file (- for stdin)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, file string) error {
	ctx := cmd.Context()
	cc := NewCommandContext(cmd)

	sql, err := readSQL(cmd, args, file)
	if err != nil {
		return err
	}

	result := cc.Analyzer().Analyze(ctx, sql, cc.Cfg.DBType)
	if err := cc.Renderer.Result(result); err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	cc.Record(ctx, result)

	if !result.Success {
		return ErrAnalysisFailed
	}
	return nil
}
