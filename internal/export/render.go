package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/fieldlineage/internal/lineage"
	"gopkg.in/yaml.v3"
)

// Format is an output format for lineage reports.
type Format string

// Supported formats.
const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat for an unrecognised name.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats returns every supported format in display order.
func Formats() []Format {
	return []Format{FormatTable, FormatMarkdown, FormatCSV, FormatHTML, FormatJSON, FormatYAML}
}

// ParseFormat maps a user-supplied name to a Format. Matching ignores case
// and surrounding whitespace; "md" and "yml" are accepted as shorthands.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	}
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return "", fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownFormat, s, strings.Join(names, ", "))
}

// Structured reports whether f encodes the whole result rather than rows.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}

// Summary returns the one-line "N tables, M fields" description of result.
func Summary(result *lineage.LineageResult) string {
	return fmt.Sprintf("%d tables, %d fields", len(result.Tables), len(result.FieldDependencies))
}

// Render writes result to w in format f.
//
// JSON and YAML encode the full result, failures included. The tabular
// formats write the report rows; a failed result is written as a single
// error line instead.
func Render(w io.Writer, result *lineage.LineageResult, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	}

	if !result.Success {
		_, err := fmt.Fprintf(w, "error: %s\n", result.Error)
		return err
	}

	switch f {
	case FormatTable:
		if len(result.Tables) > 0 {
			_, _ = fmt.Fprintf(w, "Tables: %s\n", strings.Join(result.Tables, ", "))
		}
		newTable(w, result).Render()
		_, _ = fmt.Fprintf(w, "(%s)\n", Summary(result))
	case FormatMarkdown:
		if len(result.Tables) > 0 {
			_, _ = fmt.Fprintf(w, "**Tables:** %s\n\n", strings.Join(result.Tables, ", "))
		}
		newTable(w, result).RenderMarkdown()
		_, _ = fmt.Fprintf(w, "\n_%s_\n", Summary(result))
	case FormatCSV:
		newTable(w, result).RenderCSV()
	case FormatHTML:
		newTable(w, result).RenderHTML()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
	return nil
}

func newTable(w io.Writer, result *lineage.LineageResult) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Target Field", "Source Table", "Source Fields", "Transformation", "Level"})
	for _, r := range Rows(result) {
		t.AppendRow(table.Row{r.Index, r.TargetField, r.SourceTable, r.SourceFields, r.Transformation, r.Level})
	}
	return t
}
