package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/spf13/cobra"
)

// dialectInfo describes a supported database type.
type dialectInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Aliases    []string `json:"aliases" yaml:"aliases"`
	Quoting    []string `json:"quoting" yaml:"quoting"`
	Top        bool     `json:"top" yaml:"top"`
	Aggregates int      `json:"aggregates" yaml:"aggregates"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "dialects",
		Aliases: []string{"db-types"},
		Short:   "List supported database types",
		Long: `List the database types accepted by --db-type, with the aliases each one
is also known by and the identifier quoting it understands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer
			infos := listDialects()
			if r.Structured() {
				return r.Encode(infos)
			}

			t := table.NewWriter()
			t.AppendHeader(table.Row{"Name", "Aliases", "Quoting", "TOP", "Aggregates"})
			for _, info := range infos {
				top := ""
				if info.Top {
					top = "yes"
				}
				t.AppendRow(table.Row{
					info.Name,
					strings.Join(info.Aliases, ", "),
					strings.Join(info.Quoting, " "),
					top,
					info.Aggregates,
				})
			}
			r.Table(t)
			return nil
		},
	}
}

func listDialects() []dialectInfo {
	names := dialect.List()
	infos := make([]dialectInfo, 0, len(names))
	for _, name := range names {
		d, ok := dialect.Get(name)
		if !ok {
			continue
		}
		quoting := []string{}
		if d.Quoting.DoubleQuote {
			quoting = append(quoting, `"name"`)
		}
		if d.Quoting.Backtick {
			quoting = append(quoting, "`name`")
		}
		if d.Quoting.Bracket {
			quoting = append(quoting, "[name]")
		}
		infos = append(infos, dialectInfo{
			Name:       d.Name,
			Aliases:    d.Aliases(),
			Quoting:    quoting,
			Top:        d.SupportsTop,
			Aggregates: len(d.Aggregates()),
		})
	}
	return infos
}
