package main

import (
	"fmt"
	"os"

	"github.com/odvcencio/gitelle/pkg/logging"
	"github.com/odvcencio/gitelle/pkg/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0-dev"

// logger is built from --log-level before any subcommand runs.
var logger = zap.NewNop()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "gitelle",
		Short:         "A small content-addressed version control system",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("GITELLE_LOG_LEVEL", logging.LevelNone),
		"log verbosity: none, info or debug (env GITELLE_LOG_LEVEL)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newArchiveCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newReflogCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gitelle "+version)
		},
	}
}

// openRepo opens the repository containing the current directory.
func openRepo() (*repo.Repo, error) {
	return repo.Open(".", repo.WithLogger(logger))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
