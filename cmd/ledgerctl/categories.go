package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/storage"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect categories",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List system categories, plus the ones a user owns when --user-id is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetInt64("user-id")
			rawType, _ := cmd.Flags().GetString("type")
			var categoryType *models.CategoryType
			if rawType != "" {
				t, err := models.ParseCategoryType(rawType)
				if err != nil {
					return err
				}
				categoryType = &t
			}

			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			categories, err := store.VisibleCategories(ctx, userID, categoryType, storage.Page{Limit: storage.MaxLimit})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tCOLOR\tOWNER")
			for _, c := range categories {
				owner := "system"
				if c.UserID != nil {
					owner = fmt.Sprint(*c.UserID)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, c.Color, owner)
			}
			return w.Flush()
		},
	}
	list.Flags().Int64("user-id", 0, "include categories owned by this user")
	list.Flags().String("type", "", "income or expense")
	cmd.AddCommand(list)
	return cmd
}
