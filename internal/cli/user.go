package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/repository/postgres"
	"github.com/nurlyy/guestbook/internal/service"
	"github.com/nurlyy/guestbook/pkg/auth"
	"github.com/nurlyy/guestbook/pkg/validator"
)

func newUserCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	cmd.AddCommand(newUserCreateCmd(env))
	return cmd
}

func newUserCreateCmd(env *Env) *cobra.Command {
	var req domain.UserCreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with the given role",
		Long:  "Create a user. Use --role ROLE_ADMIN to bootstrap the first administrator.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !domain.IsValidRole(req.Role) {
				return fmt.Errorf("invalid role %q (must be %s or %s)", req.Role, domain.RoleUser, domain.RoleAdmin)
			}

			db, err := env.OpenDB(cmd.Context())
			if err != nil {
				return err
			}
			defer env.closeDB(db)

			users := service.NewUserService(
				postgres.NewUserRepository(db, env.Logger),
				auth.NewJWTManager(&env.Config.JWT),
				validator.NewValidator(),
				env.Logger,
			)

			user, err := users.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(env.Out, "Created user #%d %s (%s)\n", user.ID, user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "user email")
	cmd.Flags().StringVar(&req.Password, "password", "", "user password (at least 8 characters)")
	cmd.Flags().StringVar(&req.Role, "role", domain.RoleUser, "ROLE_USER or ROLE_ADMIN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
