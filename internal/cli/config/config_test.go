package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.StringP("db-type", "d", "", "")
	fs.StringP("output", "o", "", "")
	fs.String("state", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Bool("no-history", false, "")
	fs.Int("concurrency", 0, "")
	return fs
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "fieldlineage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	loaded, err := Load("", newFlags())
	require.NoError(t, err)

	assert.Empty(t, loaded.File)
	assert.Equal(t, Default(), loaded.Config)
	require.NoError(t, loaded.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		env   map[string]string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "file overrides defaults",
			file: "db_type: postgresql\noutput: json\nconcurrency: 8\nwatch:\n  debounce: 250ms\n  extensions: [.sql, .hql]\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgresql", cfg.DBType)
				assert.Equal(t, "json", cfg.Output)
				assert.Equal(t, 8, cfg.Concurrency)
				assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
				assert.Equal(t, []string{".sql", ".hql"}, cfg.Watch.Extensions)
			},
		},
		{
			name: "env overrides file",
			file: "db_type: postgresql\n",
			env: map[string]string{
				"FIELDLINEAGE_DB_TYPE":           "oracle",
				"FIELDLINEAGE_HISTORY":           "false",
				"FIELDLINEAGE_WATCH__EXTENSIONS": ".sql,.ddl",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "oracle", cfg.DBType)
				assert.False(t, cfg.History)
				assert.Equal(t, []string{".sql", ".ddl"}, cfg.Watch.Extensions)
			},
		},
		{
			name: "flags override env",
			env:  map[string]string{"FIELDLINEAGE_DB_TYPE": "oracle"},
			args: []string{"-d", "hive", "-o", "csv", "--verbose", "--no-history", "--concurrency", "2"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "hive", cfg.DBType)
				assert.Equal(t, "csv", cfg.Output)
				assert.True(t, cfg.Verbose)
				assert.False(t, cfg.History)
				assert.Equal(t, 2, cfg.Concurrency)
			},
		},
		{
			name: "unset flags keep file values",
			file: "db_type: sqlserver\nverbose: true\n",
			args: []string{"-o", "yaml"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sqlserver", cfg.DBType)
				assert.True(t, cfg.Verbose)
				assert.Equal(t, "yaml", cfg.Output)
				assert.True(t, cfg.History)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			if tt.file != "" {
				writeConfig(t, dir, tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			fs := newFlags()
			require.NoError(t, fs.Parse(tt.args))

			loaded, err := Load("", fs)
			require.NoError(t, err)
			tt.check(t, loaded.Config)
		})
	}
}

func TestLoad_ConfigFileSearchesUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "db_type: hive\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	loaded, err := Load("", newFlags())
	require.NoError(t, err)
	assert.Equal(t, "hive", loaded.DBType)
	assert.Equal(t, "fieldlineage.yaml", filepath.Base(loaded.File))
}

func TestLoad_StatePathRelativeToConfigFile(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "state_path: data/history.db\n")
	t.Chdir(t.TempDir())

	loaded, err := Load(path, newFlags())
	require.NoError(t, err)

	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(abs, "data", "history.db"), loaded.StatePath)

	t.Run("flag wins and is kept as given", func(t *testing.T) {
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--state", "other.db"}))

		loaded, err := Load(path, fs)
		require.NoError(t, err)
		assert.Equal(t, "other.db", loaded.StatePath)
	})
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(filepath.Join(dir, "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	bad := writeConfig(t, dir, "db_type: [unclosed\n")
	_, err = Load(bad, nil)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "dialect alias", mutate: func(c *Config) { c.DBType = "postgres" }},
		{name: "format shorthand", mutate: func(c *Config) { c.Output = "md" }},
		{name: "blank db type", mutate: func(c *Config) { c.DBType = "" }, errSubstr: "database type cannot be blank"},
		{name: "unknown db type", mutate: func(c *Config) { c.DBType = "db2" }, errSubstr: "unsupported database type: db2"},
		{name: "unknown output", mutate: func(c *Config) { c.Output = "pdf" }, errSubstr: `invalid output "pdf"`},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, errSubstr: "concurrency must be positive"},
		{name: "negative debounce", mutate: func(c *Config) { c.Watch.Debounce = -time.Second }, errSubstr: "watch.debounce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := NewLogger(os.Stderr, true)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))

	cfg := Default()
	cfg.DBType = "hive"
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
