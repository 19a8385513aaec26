package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hongminglow/rideledger/internal/storage"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect user accounts",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			skip, _ := cmd.Flags().GetInt("skip")
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			users, err := store.ListUsers(ctx, storage.Page{Skip: skip, Limit: limit}.Normalize(storage.DefaultLimit))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tACTIVE\tSUPERUSER\tCREATED")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%t\t%t\t%s\n", u.ID, u.Email, u.IsActive, u.IsSuperuser, u.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
	list.Flags().Int("skip", 0, "rows to skip")
	list.Flags().Int("limit", storage.DefaultLimit, "maximum rows")
	cmd.AddCommand(list)
	return cmd
}
