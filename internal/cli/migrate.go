package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}
