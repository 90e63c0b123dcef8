package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/fieldlineage/internal/cli/config"
	"github.com/leapstack-labs/fieldlineage/internal/cli/output"
	"github.com/leapstack-labs/fieldlineage/internal/lineage"
	"github.com/leapstack-labs/fieldlineage/internal/state"
	"github.com/spf13/cobra"
)

// ErrAnalysisFailed is returned by commands whose analysis did not succeed.
// The failure itself has already been written to the output.
var ErrAnalysisFailed = errors.New("analysis failed")

// errNoSQL is returned when a command that needs SQL received none.
var errNoSQL = errors.New("no SQL provided")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config, logger and renderer the root
// command stored in the command's context. Missing values fall back to
// defaults so subcommands can also run on their own.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)

	r := output.FromContext(ctx)
	if r == nil {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: r,
	}
}

// Analyzer returns an analyzer configured from the command context.
func (c *CommandContext) Analyzer(opts ...lineage.Option) *lineage.Analyzer {
	base := []lineage.Option{
		lineage.WithLogger(c.Logger),
		lineage.WithConcurrency(c.Cfg.Concurrency),
	}
	return lineage.NewAnalyzer(append(base, opts...)...)
}

// OpenStore opens the history database at the configured state path.
// The returned cleanup function must be called (typically via defer).
func (c *CommandContext) OpenStore() (*state.Store, func(), error) {
	store, err := state.Open(c.Cfg.StatePath, state.WithLogger(c.Logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// Record saves results to the history database when history is enabled.
// History is best effort: failures are logged and reported as a warning
// but never fail the command.
func (c *CommandContext) Record(ctx context.Context, results ...*lineage.LineageResult) {
	if !c.Cfg.History || len(results) == 0 {
		return
	}

	store, cleanup, err := c.OpenStore()
	if err != nil {
		c.Logger.Warn("history disabled for this run", slog.String("error", err.Error()))
		c.Renderer.Warning("history not saved: " + err.Error())
		return
	}
	defer cleanup()

	for _, result := range results {
		if _, err := store.SaveRun(ctx, result); err != nil {
			c.Logger.Warn("failed to record run", slog.String("error", err.Error()))
			c.Renderer.Warning("history not saved: " + err.Error())
			return
		}
	}
}

// readSQL returns the SQL given as arguments, read from file, or read from
// stdin when neither is set. A file named "-" also means stdin.
func readSQL(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("provide SQL as an argument or with --file, not both")
	case file == "-":
		return readAll(cmd.InOrStdin())
	case file != "":
		data, err := os.ReadFile(file) //nolint:gosec // path comes from the user
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return readAll(cmd.InOrStdin())
	}
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
