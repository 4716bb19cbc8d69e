package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nurlyy/guestbook/pkg/database"
)

func newMigrateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := env.OpenDB(cmd.Context())
			if err != nil {
				return err
			}
			defer env.closeDB(db)

			applied, err := database.FromDB(db, env.Logger).Migrate(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(env.Out, "Applied %d migrations (schema version %d)\n", applied, database.SchemaVersion())
			return nil
		},
	}
}
