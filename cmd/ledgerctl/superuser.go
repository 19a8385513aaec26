package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongminglow/rideledger/internal/service"
)

func createSuperuserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create a superuser account if the email is not registered yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			fullName, _ := cmd.Flags().GetString("full-name")
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}

			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			users := service.NewUserService(store, nil, newLogger())
			user, created, err := users.EnsureSuperuser(ctx, email, password, fullName)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created superuser %s (id %d)\n", user.Email, user.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists (id %d); nothing to do\n", user.Email, user.ID)
			}
			return nil
		},
	}
	cmd.Flags().String("email", "", "superuser email")
	cmd.Flags().String("password", "", "superuser password")
	cmd.Flags().String("full-name", "", "superuser display name")
	return cmd
}
