package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kanban-board-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := database.SafeAutoMigrate(env.db, env.logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
