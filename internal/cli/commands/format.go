package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/leapstack-labs/fieldlineage/pkg/parser"
	"github.com/spf13/cobra"
)

// NewFormatCommand creates the format command.
func NewFormatCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "format [sql]",
		Short: "Pretty-print SQL",
		Long: `Parse SQL in the configured dialect and print it back with one clause
per line. Every statement of the input is printed, separated by a blank
line. Statements other than SELECT are printed as written.`,
		Example: `  fieldlineage format "select id,name from users where id=1"
  fieldlineage format -d sqlserver -f query.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, args, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read SQL from file (- for stdin)")

	return cmd
}

func runFormat(cmd *cobra.Command, args []string, file string) error {
	cc := NewCommandContext(cmd)

	sql, err := readSQL(cmd, args, file)
	if err != nil {
		return err
	}

	formatted, err := formatSQL(sql, cc.Cfg.DBType)
	if err != nil {
		return err
	}
	cc.Renderer.Println(formatted)
	return nil
}

// formatSQL pretty-prints every statement in sql, each terminated by a
// semicolon.
func formatSQL(sql, dbType string) (string, error) {
	d, err := dialect.Resolve(dbType)
	if err != nil {
		return "", err
	}
	stmts, err := parser.Parse(sql, d)
	if err != nil {
		return "", fmt.Errorf("failed to parse SQL: %w", err)
	}
	if len(stmts) == 0 {
		return "", errNoSQL
	}

	parts := make([]string, len(stmts))
	for i, stmt := range stmts {
		parts[i] = parser.FormatStatement(stmt) + ";"
	}
	return strings.Join(parts, "\n\n"), nil
}
