package cli

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/bukudapur/bukudapur/internal/rebuild"
	"github.com/bukudapur/bukudapur/internal/shared"
	"github.com/bukudapur/bukudapur/jobs"
)

func rebuildCmd() *cobra.Command {
	var all bool
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "rebuild [CODE]",
		Short: "Rebuild derived state and repost the journal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass an access code or --all")
			}

			var tenantID int64
			if len(args) == 1 {
				ac, err := tenantService().Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				tenantID = ac.ID
			}

			if enqueue {
				client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: runtime.cfg.RedisAddr})
				if err != nil {
					return err
				}
				defer client.Close()
				info, err := client.EnqueueLedgerRebuild(cmd.Context(), jobs.LedgerRebuildPayload{
					TenantID:  tenantID,
					Requested: time.Now().UTC(),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s\n", info.Type, info.ID)
				return nil
			}

			repo := rebuild.NewRepository(runtime.pool)
			engine := rebuild.NewEngine(repo, shared.NewAuditLogger(runtime.pool), runtime.logger)
			if all {
				ids, err := repo.ListTenantIDs(cmd.Context())
				if err != nil {
					return err
				}
				results, err := engine.RebuildAll(cmd.Context(), ids)
				if err != nil {
					return err
				}
				for _, r := range results {
					fmt.Fprintf(cmd.OutOrStdout(), "tenant %d: %d entries in %s\n",
						r.TenantID, r.EntriesPosted, r.Duration.Round(time.Millisecond))
				}
				return nil
			}
			r, err := engine.Rebuild(cmd.Context(), tenantID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %d: %d entries in %s (run %s)\n",
				r.TenantID, r.EntriesPosted, r.Duration.Round(time.Millisecond), r.RunID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "rebuild every active kitchen")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "run through the job queue instead of inline")
	return cmd
}
