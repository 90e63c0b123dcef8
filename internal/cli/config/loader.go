package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read into the config.
// A double underscore separates nesting levels: FIELDLINEAGE_WATCH__DEBOUNCE.
const EnvPrefix = "FIELDLINEAGE_"

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{"fieldlineage.yaml", "fieldlineage.yml"}

// Loaded is the result of Load: the decoded config and the file it came
// from, if any.
type Loaded struct {
	*Config
	File string
}

// findConfigFile returns explicit when set, otherwise the nearest
// fieldlineage.yaml/.yml found walking up from dir.
func findConfigFile(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from defaults, the config file, environment
// variables and flags. Precedence (highest to lowest): flags > env vars >
// config file > defaults. Only flags that were explicitly set are applied.
func Load(cfgFile string, flags *pflag.FlagSet) (*Loaded, error) {
	k := koanf.New(".")
	def := Default()

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"db_type":          def.DBType,
		"output":           def.Output,
		"state_path":       def.StatePath,
		"history":          def.History,
		"verbose":          def.Verbose,
		"concurrency":      def.Concurrency,
		"watch.extensions": def.Watch.Extensions,
		"watch.debounce":   def.Watch.Debounce.String(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	used := findConfigFile(cfgFile, cwd)
	stateFromFile := false
	if used != "" {
		fk := koanf.New(".")
		if err := fk.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
		stateFromFile = fk.Exists("state_path")
		if err := k.Merge(fk); err != nil {
			return nil, fmt.Errorf("error merging config file %s: %w", used, err)
		}
	}

	// 3. Environment: FIELDLINEAGE_DB_TYPE -> db_type
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey(flags)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Decode
	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// A relative state_path in the config file is relative to that file.
	overridden := os.Getenv(EnvPrefix+"STATE_PATH") != "" || (flags != nil && flags.Changed("state"))
	if stateFromFile && !overridden {
		if abs, err := filepath.Abs(used); err == nil {
			cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, filepath.Dir(abs))
		}
	}

	return &Loaded{Config: cfg, File: used}, nil
}

// flagKey maps flag names onto config keys. Unchanged flags are skipped so
// their defaults do not shadow the file and environment.
func flagKey(flags *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		if !f.Changed {
			return "", nil
		}
		switch f.Name {
		case "state":
			return "state_path", posflag.FlagVal(flags, f)
		case "no-history":
			off, _ := flags.GetBool("no-history")
			return "history", !off
		case "config":
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// NewLogger builds the CLI logger: Debug level when verbose, Warn otherwise.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
