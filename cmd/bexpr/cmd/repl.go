package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msto63/bexpr/internal/history"
	"github.com/msto63/bexpr/internal/repl"
	"github.com/msto63/bexpr/internal/server"
	"github.com/msto63/bexpr/internal/session"
)

var (
	replRemote  string
	replConnect bool
	replHistory bool
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Starts the interactive terminal UI",
	Long: `Starts an interactive session. Statements are evaluated as each line
is submitted; the Tokens tab shows the lexemes of the line being typed.

With --remote the statements are evaluated by a running "bexpr serve";
--connect does the same for the address in the [grpc] config section.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVar(&replRemote, "remote", "", "gRPC address of a running evaluator, e.g. localhost:9310")
	replCmd.Flags().BoolVar(&replConnect, "connect", false, "evaluate on the gRPC server from the configuration")
	replCmd.MarkFlagsMutuallyExclusive("remote", "connect")
	replCmd.Flags().BoolVar(&replHistory, "history", false, "record statements in the history database")
}

func runRepl(cmd *cobra.Command, args []string) error {
	if replConnect {
		replRemote = appConfig.DialAddress("grpc")
	}
	if replRemote != "" {
		client, err := server.Dial(replRemote)
		if err != nil {
			return err
		}
		defer client.Close()
		return repl.Run(repl.NewRemoteBackend(client, replRemote))
	}

	cfg := session.Config{
		Logger:   logger,
		Source:   history.SourceREPL,
		MaxDepth: appConfig.Evaluator.MaxDepth,
	}
	if replHistory || appConfig.History.Enabled {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Store = store
	}

	return repl.Run(repl.NewLocalBackend(session.New(cfg)))
}
