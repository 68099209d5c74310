// Package main provides the entry point for the buildsched CLI, a
// distributed continuous-build scheduler core exposed as a single-shot
// executable: each invocation performs one action (sync, record a build
// outcome, or print a report) against a version-control repository.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildsched/buildsched/cmd/buildsched/commands"
	"github.com/buildsched/buildsched/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "buildsched",
		Short: "buildsched - continuous-build scheduler core",
		Long: `buildsched tracks per-commit build state in a version-control repository
and proposes which commit to build next.

Commands:
  sync                   Fetch all remotes
  set-commit-running     Record that a commit has started building
  set-commit-finished    Record a commit's build outcome
  show-state             Print the tracker summary
  show-history           Print recent commits and their state
  show-proposals         Print ranked build candidates`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.Register(rootCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "buildsched %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
