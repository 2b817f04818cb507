// Package cmd defines and implements the CLI commands for the creto-votes executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creto-votes",
		Short: "Collects and normalizes congressional roll-call votes.",
		Long: `creto-votes pulls roll-call votes from the official Senate and House
Clerk XML feeds, normalizes both chambers into one record shape, and
writes the dataset as JSON files for downstream consumers.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.AddCommand(newCollectCmd())

	return cmd
}

// Execute is the main entry point. It installs signal handling so an
// interrupted run still flushes the partial dataset before exiting.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
