package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mirrorkit/photomirror/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "photomirror",
		Short: "Incremental filesystem mirror for a remote photo library",
		Long: `photomirror mirrors a remote photo library (files grouped into
collections) to a local directory. It diffs the remote inventory against a
local journal, then renames, trashes, and exports only what changed, so a
large library can be kept in sync without re-copying everything on every
run.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cli.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(cli.NewExportCommand())
	rootCmd.AddCommand(cli.NewWatchCommand())
	rootCmd.AddCommand(cli.NewStatusCommand())
	rootCmd.AddCommand(cli.NewMigrateCommand())
	rootCmd.AddCommand(cli.NewConfigCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	return rootCmd.Execute()
}
