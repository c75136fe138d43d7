package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/accounting/reports"
)

func balanceCmd() *cobra.Command {
	var fromStr, toStr string
	cmd := &cobra.Command{
		Use:   "balance CODE ACCOUNT",
		Short: "Show an account's movement balance for a kitchen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := tenantService().Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			from, err := parseDateFlag(fromStr)
			if err != nil {
				return err
			}
			to, err := parseDateFlag(toStr)
			if err != nil {
				return err
			}
			svc := journals.NewService(journals.NewRepository(runtime.pool))
			balance, err := svc.Balance(cmd.Context(), ac.ID, args[1], from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[1], reports.FormatAmount(balance))
			return nil
		},
	}
	cmd.Flags().StringVar(&fromStr, "from", "", "start date (2006-01-02)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date, inclusive (2006-01-02)")
	return cmd
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}
