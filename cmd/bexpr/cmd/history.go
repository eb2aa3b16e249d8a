package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/bexpr/internal/evaluator"
	"github.com/msto63/bexpr/internal/history"
)

var (
	historyLimit   int
	historySession string
	historyErrors  bool
	historyKind    string
	historyJSON    bool
	historyStats   bool
	historyPrune   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Shows recorded evaluations",
	Long: `Lists statements recorded by "eval --history", the REPL and the
servers, newest first.

Examples:
  bexpr history --limit 20
  bexpr history --session 3f0c... --errors
  bexpr history --kind division_by_zero
  bexpr history --stats
  bexpr history --prune 720h`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of records")
	historyCmd.Flags().StringVar(&historySession, "session", "", "only records of this session")
	historyCmd.Flags().BoolVar(&historyErrors, "errors", false, "only rejected statements")
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "only statements rejected with this error kind")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print records as JSON")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "print statistics instead of records")
	historyCmd.Flags().StringVar(&historyPrune, "prune", "", "delete records older than this duration, e.g. 720h")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if historyKind != "" {
		if _, ok := evaluator.ParseKind(historyKind); !ok {
			return fmt.Errorf("unknown error kind %q", historyKind)
		}
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	switch {
	case historyPrune != "":
		olderThan, err := time.ParseDuration(historyPrune)
		if err != nil {
			return fmt.Errorf("invalid --prune duration: %w", err)
		}
		deleted, err := store.Prune(ctx, olderThan)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d records\n", deleted)
		return nil

	case historyStats:
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		if historyJSON {
			return writeJSON(cmd, stats)
		}
		fmt.Fprintf(out, "Statements: %d\n", stats.Total)
		fmt.Fprintf(out, "Rejected:   %d\n", stats.Errors)
		fmt.Fprintf(out, "Sessions:   %d\n", stats.Sessions)
		if stats.Total > 0 {
			fmt.Fprintf(out, "First:      %s\n", stats.First.Local().Format(time.DateTime))
			fmt.Fprintf(out, "Last:       %s\n", stats.Last.Local().Format(time.DateTime))
		}
		kinds := make([]string, 0, len(stats.ByKind))
		for kind := range stats.ByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(out, "  %-20s %d\n", kind, stats.ByKind[kind])
		}
		return nil
	}

	records, err := store.Query(ctx, history.Filter{
		SessionID:  historySession,
		OnlyErrors: historyErrors,
		ErrorKind:  historyKind,
		Limit:      historyLimit,
	})
	if err != nil {
		return err
	}
	if historyJSON {
		return writeJSON(cmd, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No records")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tSESSION\t#\tSTATEMENT\tRESULT")
	for _, rec := range records {
		result := fmt.Sprintf("%d", rec.Value)
		if rec.Failed() {
			result = rec.ErrorMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			rec.Timestamp.Local().Format(time.DateTime),
			rec.Source,
			shortID(rec.SessionID),
			rec.Statement,
			rec.Text,
			result,
		)
	}
	return w.Flush()
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
