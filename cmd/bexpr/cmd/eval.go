package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/session"
)

var (
	evalExpr    []string
	evalHistory bool
	evalStrict  bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [file...]",
	Short: "Evaluates statements",
	Long: `Evaluates every statement read from the given files, from -e
arguments, or from stdin. Each result is printed as

  Statement #N: <statement> = <value>

Rejected statements print their error message to stderr and the rest of
that line is skipped; evaluation continues with the next line.

Examples:
  bexpr eval -e "1 + 2 * 3 ;"
  bexpr eval statements.txt
  echo "2 ^ 10 ;" | bexpr eval`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringArrayVarP(&evalExpr, "expr", "e", nil, "statement line to evaluate (repeatable)")
	evalCmd.Flags().BoolVar(&evalHistory, "history", false, "record statements in the history database")
	evalCmd.Flags().BoolVar(&evalStrict, "strict", false, "exit with an error when a statement is rejected")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := session.Config{
		Out:      cmd.OutOrStdout(),
		Diag:     cmd.ErrOrStderr(),
		Logger:   logger,
		Source:   history.SourceCLI,
		MaxDepth: appConfig.Evaluator.MaxDepth,
		Verbose:  verbose,
	}

	if evalHistory || appConfig.History.Enabled {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Store = store
	}

	sess := session.New(cfg)

	var inputs []io.Reader
	switch {
	case len(evalExpr) > 0:
		inputs = append(inputs, strings.NewReader(strings.Join(evalExpr, "\n")))
	case len(args) > 0:
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()
			inputs = append(inputs, f)
		}
	default:
		inputs = append(inputs, cmd.InOrStdin())
	}

	var stats session.Stats
	for _, in := range inputs {
		var err error
		if stats, err = sess.Run(ctx, in); err != nil {
			return err
		}
	}

	if evalStrict && stats.Errors > 0 {
		return fmt.Errorf("%d of %d statements rejected", stats.Errors, stats.Statements)
	}
	return nil
}
