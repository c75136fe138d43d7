package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bukudapur/bukudapur/internal/app"
	"github.com/bukudapur/bukudapur/internal/platform/db"
)

// env carries the shared runtime handed to every subcommand.
type env struct {
	cfg    *app.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
}

var runtime env

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bukudapur",
		Short:         "Kitchen bookkeeping administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pool, err := db.New(cmd.Context(), cfg.PGDSN, cfg.PGMaxConns)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			runtime = env{cfg: cfg, logger: app.NewLogger(cfg), pool: pool}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if runtime.pool != nil {
				runtime.pool.Close()
			}
		},
	}
	root.AddCommand(tenantCmd())
	root.AddCommand(seedAccountsCmd())
	root.AddCommand(rebuildCmd())
	root.AddCommand(balanceCmd())
	root.AddCommand(migrateCmd())
	return root
}

// Execute runs the CLI.
func Execute() error {
	root := rootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return err
	}
	return nil
}
