package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bukudapur/bukudapur/internal/tenant"
)

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage kitchen access codes",
	}
	cmd.AddCommand(tenantCreateCmd(), tenantExtendCmd(), tenantExpireCmd(), tenantListCmd())
	return cmd
}

func tenantService() *tenant.Service {
	return tenant.NewService(tenant.NewRepository(runtime.pool))
}

func tenantCreateCmd() *cobra.Command {
	var name string
	var days int
	var status string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new access code",
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := tenantService().Create(cmd.Context(), tenant.CreateInput{
				KitchenName: name,
				Days:        days,
				Status:      tenant.Status(status),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tvalid until %s\n",
				ac.Code, ac.KitchenName, ac.Status, ac.ExpiresAt.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "kitchen name")
	cmd.Flags().IntVar(&days, "days", 30, "validity in days")
	cmd.Flags().StringVar(&status, "status", string(tenant.StatusTrial), "trial or active")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func tenantExtendCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "extend CODE",
		Short: "Extend an access code's validity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := tenantService().Extend(cmd.Context(), args[0], days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tvalid until %s\n",
				ac.Code, ac.Status, ac.ExpiresAt.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "days to add")
	return cmd
}

func tenantExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire CODE",
		Short: "Expire an access code immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := tenantService().Expire(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ac.Code, ac.Status)
			return nil
		},
	}
}

func tenantListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List access codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := tenantService().List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, ac := range codes {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%s\n",
					ac.ID, ac.Code, ac.KitchenName, ac.Status, ac.ExpiresAt.Format("2006-01-02"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}
