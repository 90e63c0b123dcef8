package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-analyze SQL files as they change",
		Long: `Analyze every SQL file under a directory, then keep watching it and
re-analyze files whenever they are written or created.

The file extensions and the debounce delay come from the watch section of
the config (defaults: .sql and 100ms). Hidden directories are skipped.`,
		Example: `  # Watch the current directory
  fieldlineage watch

  # Analyze a directory once and exit
  fieldlineage watch --once ./models`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			w, err := newSQLWatcher(NewCommandContext(cmd), dir)
			if err != nil {
				return err
			}
			if once {
				return w.scan(cmd.Context())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return w.run(ctx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Analyze the files once and exit")

	return cmd
}

// sqlWatcher re-analyzes SQL files under dir as they change. Changes are
// collected and analyzed together once no new change arrived for the
// debounce delay.
type sqlWatcher struct {
	cc         *CommandContext
	dir        string
	extensions []string
	debounce   time.Duration
	dialect    *dialect.Dialect

	// mu guards pending and timer; outMu serialises output and is taken
	// before mu.
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	outMu   sync.Mutex
}

func newSQLWatcher(cc *CommandContext, dir string) (*sqlWatcher, error) {
	d, err := dialect.Resolve(cc.Cfg.DBType)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to watch %s: not a directory", dir)
	}

	exts := make([]string, 0, len(cc.Cfg.Watch.Extensions))
	for _, ext := range cc.Cfg.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}

	return &sqlWatcher{
		cc:         cc,
		dir:        dir,
		extensions: exts,
		debounce:   cc.Cfg.Watch.Debounce,
		dialect:    d,
		pending:    make(map[string]struct{}),
	}, nil
}

// matches reports whether path has one of the watched extensions.
func (w *sqlWatcher) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// scan analyzes every matching file under dir.
func (w *sqlWatcher) scan(ctx context.Context) error {
	var files []string
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", w.dir, err)
	}

	if len(files) == 0 {
		w.cc.Renderer.Muted("No SQL files found in " + w.dir)
		return nil
	}
	w.outMu.Lock()
	defer w.outMu.Unlock()
	w.analyzeFiles(ctx, files)
	return nil
}

// run watches dir until ctx is cancelled.
func (w *sqlWatcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := w.watchDir(watcher, w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	if err := w.scan(ctx); err != nil {
		return err
	}
	w.cc.Renderer.Muted(fmt.Sprintf("Watching %s for changes (%s). Press Ctrl+C to stop.",
		w.dir, strings.Join(w.extensions, ", ")))

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Only handle write/create events
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchDir(watcher, event.Name); err != nil {
						w.cc.Logger.Warn("failed to watch new directory",
							slog.String("dir", event.Name), slog.String("error", err.Error()))
					}
					continue
				}
			}

			if w.matches(event.Name) {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.cc.Logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// watchDir recursively adds a directory to the watcher.
func (w *sqlWatcher) watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// schedule queues path and restarts the debounce timer.
func (w *sqlWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.flush(ctx)
	})
}

// stop cancels the pending debounce and waits for a flush that is
// already writing output. Flushes that start later see the cancelled
// context and skip.
func (w *sqlWatcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.outMu.Lock()
	defer w.outMu.Unlock()
}

// flush analyzes every queued file. The context is checked under outMu
// so that stop can wait for it.
func (w *sqlWatcher) flush(ctx context.Context) {
	w.outMu.Lock()
	defer w.outMu.Unlock()

	w.mu.Lock()
	files := make([]string, 0, len(w.pending))
	for path := range w.pending {
		files = append(files, path)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(files) == 0 || ctx.Err() != nil {
		return
	}
	sort.Strings(files)
	w.cc.Logger.Debug("change detected", slog.Int("files", len(files)))
	w.analyzeFiles(ctx, files)
}

// analyzeFiles analyzes and reports each file in turn. Callers hold outMu.
func (w *sqlWatcher) analyzeFiles(ctx context.Context, files []string) {
	r := w.cc.Renderer
	for _, path := range files {
		entries, sqls, err := splitFiles([]string{path}, w.dialect)
		if err != nil {
			// The file may have been removed between the event and now.
			r.Error(err.Error())
			continue
		}

		name := w.displayName(path)
		if len(entries) == 0 {
			r.StatusLine(name, "warning", "no statements")
			continue
		}

		results := w.cc.Analyzer().AnalyzeBatch(ctx, sqls, w.dialect.Name)
		w.cc.Record(ctx, results...)

		if r.Structured() {
			for i := range entries {
				entries[i].File = name
				entries[i].Result = results[i]
			}
			if err := r.Encode(entries); err != nil {
				r.Error(err.Error())
			}
			continue
		}

		r.Header(2, name)
		for i, result := range results {
			writeStatus(w.cc, fmt.Sprintf("statement %d", entries[i].Statement), result)
			if result.Success {
				if err := r.Result(result); err != nil {
					r.Error(err.Error())
				}
			}
		}
		r.Println()
	}
}

func (w *sqlWatcher) displayName(path string) string {
	if rel, err := filepath.Rel(w.dir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.'
}
