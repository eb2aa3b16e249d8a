package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/bexpr/internal/listing"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [input] [output]",
	Short: "Writes the lexeme listing of an input file",
	Long: `Classifies every lexeme of the input and writes the listing:

  Statement #1
  Lexeme 0 is 7 and is an INT_LITERAL
  Lexeme 1 is / and is a DIV_OP
  ...
  ---------------------------------------------------------

Input defaults to stdin and output to stdout; "-" selects them explicitly.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runTokenize,
}

func init() {
	rootCmd.AddCommand(tokenizeCmd)
}

func runTokenize(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	var out io.Writer = cmd.OutOrStdout()
	if len(args) > 1 && args[1] != "-" {
		f, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	stats, err := listing.Write(in, out, logger)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d lines, %d statements, %d lexemes, %d invalid\n",
			stats.Lines, stats.Statements, stats.Lexemes, stats.Invalid)
	}
	return nil
}
