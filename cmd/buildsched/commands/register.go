package commands

import "github.com/spf13/cobra"

// Register attaches every buildsched subcommand and the shared persistent
// flags to root.
func Register(root *cobra.Command) {
	gf := &globalFlags{}
	RegisterPersistentFlags(root, gf)

	root.AddCommand(newSyncCommand(gf))
	root.AddCommand(newSetCommitRunningCommand(gf))
	root.AddCommand(newSetCommitFinishedCommand(gf))
	root.AddCommand(newShowStateCommand(gf))
	root.AddCommand(newShowHistoryCommand(gf))
	root.AddCommand(newShowProposalsCommand(gf))
}
