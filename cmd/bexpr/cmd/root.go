package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mdwlog "github.com/msto63/bexpr/foundation/core/log"
	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/pkg/core/config"
	"github.com/msto63/bexpr/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool

	appConfig *config.Config
	logger    *mdwlog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bexpr",
	Short: "bexpr - statement lexer and evaluator",
	Long: `bexpr evaluates integer statements terminated by ';'.

Statements combine integer literals with + - * / ^, parentheses and the
comparisons < > <= >= == != (which yield 1 or 0). Comparisons bind
tighter than multiplication and ^ is right associative.

Commands:
  tokenize - lexeme listing of an input file
  eval     - evaluate statements from files, stdin or -e
  repl     - interactive terminal UI
  serve    - gRPC evaluator and WebSocket gateway
  history  - inspect recorded evaluations`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $BEXPR_CONFIG or ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and error positions")
}

// setup loads the configuration and installs the default logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := appConfig.General.LogLevel
	if verbose {
		level = "debug"
	}
	logger = logging.NewLogger(logging.LoggerConfig{
		ServiceName: appConfig.General.Name,
		Level:       level,
		Format:      appConfig.General.LogFormat,
		Output:      cmd.ErrOrStderr(),
	})
	mdwlog.SetDefault(logger)

	logger.Debug("Configuration loaded", mdwlog.Fields{
		"config":  cfgFile,
		"history": appConfig.History.Enabled,
	})
	return nil
}

// openHistory opens the configured history database
func openHistory() (*history.SQLiteStore, error) {
	store, err := history.NewSQLiteStore(history.SQLiteConfig{Path: appConfig.History.Path})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", appConfig.History.Path, err)
	}
	return store, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
