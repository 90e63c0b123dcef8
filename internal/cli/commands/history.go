package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/fieldlineage/internal/export"
	"github.com/spf13/cobra"
)

const sqlPreviewWidth = 50

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded analysis runs",
		Long: `Every analysis is recorded in a SQLite database at the configured state
path (default .fieldlineage/history.db). Use these subcommands to list,
show, delete and prune recorded runs.`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryDeleteCommand())
	cmd.AddCommand(newHistoryPruneCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent runs, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			store, cleanup, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.Structured() {
				return r.Encode(runs)
			}
			if len(runs) == 0 {
				r.Muted("No runs recorded.")
				return nil
			}

			t := table.NewWriter()
			t.AppendHeader(table.Row{"ID", "Created", "DB Type", "Status", "Tables", "Fields", "SQL"})
			for _, run := range runs {
				status := "ok"
				if !run.Success {
					status = "failed"
				}
				t.AppendRow(table.Row{
					run.ID,
					run.CreatedAt.Local().Format(time.DateTime),
					run.DBType,
					status,
					len(run.Tables),
					len(run.FieldDependencies),
					sqlPreview(run.SQL),
				})
			}
			r.Table(t)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the lineage report of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			store, cleanup, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.Structured() {
				return r.Encode(run)
			}
			r.Header(2, "Run "+run.ID)
			r.Muted(fmt.Sprintf("%s  %s", run.CreatedAt.Local().Format(time.DateTime), run.DBType))
			r.Println(strings.TrimSpace(run.SQL))
			r.Println()
			return export.Render(r.Writer(), run.Result(), r.Format())
		},
	}
}

func newHistoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a recorded run",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			store, cleanup, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			cc.Renderer.Success("Deleted run " + args[0])
			return nil
		},
	}
}

func newHistoryPruneCommand() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			store, cleanup, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer cleanup()

			removed, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			cc.Renderer.Success(fmt.Sprintf("Removed %d runs, kept at most %d", removed, keep))
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 100, "Number of most recent runs to keep")

	return cmd
}

// sqlPreview collapses whitespace and shortens sql for table display.
func sqlPreview(sql string) string {
	s := strings.Join(strings.Fields(sql), " ")
	runes := []rune(s)
	if len(runes) <= sqlPreviewWidth {
		return s
	}
	return string(runes[:sqlPreviewWidth-3]) + "..."
}
