package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSyncCommand(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch all remotes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.obsShutdown()

			start := time.Now()
			err = a.adapter.FetchAll(cmd.Context())
			a.adapterMetrics.RecordOp(cmd.Context(), "fetch_all", time.Since(start), err)

			if err != nil {
				a.logger.Error("sync failed", "error", err)

				return fmt.Errorf("sync: %w", err)
			}

			a.logger.Info("sync ok")
			fmt.Fprintln(cmd.OutOrStdout(), "sync: ok")

			return nil
		},
	}
}
