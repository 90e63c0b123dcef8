// Package cli provides the command-line interface for fieldlineage.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/leapstack-labs/fieldlineage/internal/cli/commands"
	"github.com/leapstack-labs/fieldlineage/internal/cli/config"
	"github.com/leapstack-labs/fieldlineage/internal/cli/output"
	"github.com/leapstack-labs/fieldlineage/pkg/dialect"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// skipSetup lists commands that run without loading configuration.
var skipSetup = []string{"help", "completion", "__complete", "__completeNoDesc", "version"}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "fieldlineage",
		Short: "fieldlineage - SQL field-level lineage analyzer",
		Long: `fieldlineage reads a SQL SELECT statement and reports, for every output
column, which source table and fields it comes from and whether it is a
direct mapping, an aggregate or a computed expression.

MySQL, Hive, PostgreSQL, Oracle and SQL Server syntax is supported.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if slices.Contains(skipSetup, cmd.Name()) {
				return nil
			}

			loaded, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), loaded.Verbose)
			if loaded.File != "" {
				logger.Debug("using config file", slog.String("path", loaded.File))
			}

			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(loaded.Output))

			ctx := config.WithLogger(cmd.Context(), logger)
			ctx = config.WithConfig(ctx, loaded.Config)
			ctx = output.WithRenderer(ctx, renderer)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
` + fmt.Sprintf("commit %s, built %s\n", GitCommit, BuildDate))

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: nearest fieldlineage.yaml)")
	flags.StringP("db-type", "d", "", "Database type (default mysql)")
	flags.StringP("output", "o", "", "Output format ("+strings.Join(config.OutputNames(), "|")+")")
	flags.String("state", "", "Path to the history database")
	flags.BoolP("verbose", "v", false, "Verbose logging")
	flags.Bool("no-history", false, "Do not record analyses in the history database")
	flags.Int("concurrency", 0, "Statements analyzed in parallel by batch and watch")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputNames(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("db-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dialect.List(), cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewBatchCommand())
	rootCmd.AddCommand(commands.NewFormatCommand())
	rootCmd.AddCommand(commands.NewDialectsCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for fieldlineage.

To load completions:

Bash:
  $ source <(fieldlineage completion bash)

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ fieldlineage completion zsh > "${fpath[1]}/_fieldlineage"

Fish:
  $ fieldlineage completion fish | source

PowerShell:
  PS> fieldlineage completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
