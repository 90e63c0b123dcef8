package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/fieldlineage/internal/cli/output"
	"github.com/leapstack-labs/fieldlineage/internal/export"
	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/spf13/cobra"
)

const (
	replPrompt      = "fieldlineage> "
	replContinue    = "         ...> "
	replHistoryFile = "repl_history"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Analyze SQL interactively",
		Long: `Start an interactive session. Type a SELECT statement ending with a
semicolon to see its lineage; statements may span several lines.

Dot-commands change the session: .dialect <name> switches the database
type, .format <name> switches the output format, .help lists everything.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	session := newREPLSession(cmd.Context(), cc)

	historyFile := ""
	if cc.Cfg.History {
		dir := filepath.Dir(cc.Cfg.StatePath)
		if err := os.MkdirAll(dir, 0o750); err == nil {
			historyFile = filepath.Join(dir, replHistoryFile)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	cc.Renderer.Printf("fieldlineage REPL (db type: %s)\n", session.dbType)
	cc.Renderer.Println("Type .help for commands, .quit to exit")
	cc.Renderer.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.reset()
			rl.SetPrompt(session.prompt())
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if session.handleLine(line) {
			break
		}
		rl.SetPrompt(session.prompt())
	}

	return nil
}

// replSession holds the state of one interactive session. Input is fed a
// line at a time; a statement is analyzed once a line ends with ";".
type replSession struct {
	ctx      context.Context
	cc       *CommandContext
	renderer *output.Renderer
	dbType   string
	buf      strings.Builder
}

func newREPLSession(ctx context.Context, cc *CommandContext) *replSession {
	return &replSession{
		ctx:      ctx,
		cc:       cc,
		renderer: cc.Renderer,
		dbType:   cc.Cfg.DBType,
	}
}

func (s *replSession) prompt() string {
	if s.buf.Len() > 0 {
		return replContinue
	}
	return replPrompt
}

func (s *replSession) reset() {
	s.buf.Reset()
}

// handleLine processes one line of input and reports whether the session
// should end.
func (s *replSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	// Accumulate multi-line SQL until semicolon
	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString("\n")
		return false
	}

	sql := strings.TrimSuffix(s.buf.String(), ";")
	s.buf.Reset()
	s.analyze(sql)
	return false
}

func (s *replSession) analyze(sql string) {
	result := s.cc.Analyzer().Analyze(s.ctx, sql, s.dbType)
	if err := s.renderer.Result(result); err != nil {
		s.renderer.Error(err.Error())
	}
	s.cc.Record(s.ctx, result)
	s.renderer.Println()
}

func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.renderer.Writer())

	case ".dialect":
		if len(parts) < 2 {
			s.renderer.Println(s.dbType)
			return false
		}
		d, err := dialect.Resolve(parts[1])
		if err != nil {
			s.renderer.Error(err.Error())
			return false
		}
		s.dbType = d.Name
		s.renderer.Success("db type set to " + d.Name)

	case ".format":
		if len(parts) < 2 {
			s.renderer.Println(string(s.renderer.Format()))
			return false
		}
		mode := output.Mode(strings.ToLower(parts[1]))
		if mode != output.ModeAuto {
			f, err := export.ParseFormat(parts[1])
			if err != nil {
				s.renderer.Error(err.Error())
				return false
			}
			mode = output.Mode(f)
		}
		s.renderer = output.NewRendererWithTTY(s.renderer.Writer(), s.renderer.ErrWriter(), s.renderer.IsTTY(), mode)
		s.renderer.Success("output format set to " + string(s.renderer.Format()))

	case ".dialects":
		s.renderer.Println(strings.Join(dialect.List(), ", "))

	default:
		s.renderer.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .dialect [name]   Show or set the database type
  .dialects         List supported database types
  .format [name]    Show or set the output format
  .quit / .exit     Exit the REPL

Tips:
  - Statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for dot-commands
`
	_, _ = fmt.Fprintln(w, help)
}

// newREPLCompleter creates a readline completer for dot-commands.
func newREPLCompleter() *readline.PrefixCompleter {
	var dialects []readline.PrefixCompleterInterface
	for _, name := range dialect.List() {
		dialects = append(dialects, readline.PcItem(name))
	}

	formats := []readline.PrefixCompleterInterface{readline.PcItem(string(output.ModeAuto))}
	for _, f := range export.Formats() {
		formats = append(formats, readline.PcItem(string(f)))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".dialect", dialects...),
		readline.PcItem(".dialects"),
		readline.PcItem(".format", formats...),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
