package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bukudapur/bukudapur/internal/accounting/accounts"
)

func seedAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-accounts CODE",
		Short: "Seed the default chart of accounts for a kitchen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := tenantService().Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			svc := accounts.NewService(accounts.NewRepository(runtime.pool))
			created, err := svc.SeedDefaults(cmd.Context(), ac.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d accounts for %s\n", created, ac.KitchenName)
			return nil
		},
	}
}
