// Package output renders command results for terminals and pipes.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/fieldlineage/internal/export"
	"github.com/leapstack-labs/fieldlineage/internal/lineage"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Mode is the configured output setting: auto or an export format name.
type Mode string

// ModeAuto picks table on a terminal and markdown otherwise.
const ModeAuto Mode = "auto"

// Renderer writes results and status lines.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	Styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   Mode(strings.ToLower(string(mode))),
		isTTY:  isTTY,
		Styles: NewStyles(isTTY && ColorEnabled()),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Writer returns the primary output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the diagnostic output writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Format resolves the mode to a concrete export format. Unknown modes
// fall back to auto.
func (r *Renderer) Format() export.Format {
	if r.mode != ModeAuto {
		if f, err := export.ParseFormat(string(r.mode)); err == nil {
			return f
		}
	}
	if r.isTTY {
		return export.FormatTable
	}
	return export.FormatMarkdown
}

// Structured reports whether the effective format is JSON or YAML. Status
// lines are suppressed in that case so stdout stays machine readable.
func (r *Renderer) Structured() bool {
	return r.Format().Structured()
}

// Result renders a lineage result in the effective format.
func (r *Renderer) Result(result *lineage.LineageResult) error {
	return export.Render(r.out, result, r.Format())
}

// Encode writes v as YAML when that is the effective format and as
// indented JSON otherwise.
func (r *Renderer) Encode(v any) error {
	if r.Format() == export.FormatYAML {
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return r.JSON(v)
}

// Table renders t in the effective tabular format. Structured formats are
// not handled here; callers encode their data with Encode instead.
func (r *Renderer) Table(t table.Writer) {
	t.SetOutputMirror(r.out)
	switch r.Format() {
	case export.FormatMarkdown:
		t.RenderMarkdown()
	case export.FormatCSV:
		t.RenderCSV()
	case export.FormatHTML:
		t.RenderHTML()
	default:
		t.SetStyle(table.StyleLight)
		t.Render()
	}
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Println writes a line to the primary output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the primary output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header. Level 1 is the most prominent.
func (r *Renderer) Header(level int, text string) {
	if r.Structured() {
		return
	}
	if r.Format() == export.FormatMarkdown {
		r.Printf("%s %s\n\n", strings.Repeat("#", max(level, 1)), text)
		return
	}
	r.Println(r.Styles.Header.Render(text))
}

// Success writes a success status line.
func (r *Renderer) Success(msg string) {
	if r.Structured() {
		return
	}
	r.Println(r.Styles.Success.Render("✓ " + msg))
}

// Muted writes a de-emphasised line.
func (r *Renderer) Muted(msg string) {
	if r.Structured() {
		return
	}
	r.Println(r.Styles.Muted.Render(msg))
}

// Warning writes a warning to the diagnostic output.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.Styles.Warning.Render("! "+msg))
}

// Error writes an error to the diagnostic output.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.Styles.Error.Render("✗ "+msg))
}

// StatusLine writes "<mark> name  detail" where status is success, error
// or warning.
func (r *Renderer) StatusLine(name, status, detail string) {
	if r.Structured() {
		return
	}
	var mark string
	switch status {
	case "success":
		mark = r.Styles.Success.Render("✓")
	case "error":
		mark = r.Styles.Error.Render("✗")
	default:
		mark = r.Styles.Warning.Render("!")
	}
	line := mark + " " + name
	if detail != "" {
		line += "  " + r.Styles.Muted.Render(detail)
	}
	r.Println(line)
}

// rendererKey is used to store the renderer in context.
type rendererKey struct{}

// WithRenderer returns a copy of ctx carrying r.
func WithRenderer(ctx context.Context, r *Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// FromContext returns the renderer stored by WithRenderer, or nil.
func FromContext(ctx context.Context) *Renderer {
	if ctx == nil {
		return nil
	}
	r, _ := ctx.Value(rendererKey{}).(*Renderer)
	return r
}
