package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bukudapur/bukudapur/internal/jobs"
	"github.com/bukudapur/bukudapur/internal/rebuild"
)

// Rebuilder is satisfied by rebuild.Engine.
type Rebuilder interface {
	Rebuild(ctx context.Context, tenantID int64) (rebuild.Result, error)
	RebuildAll(ctx context.Context, tenantIDs []int64) ([]rebuild.Result, error)
}

// TenantLister discovers tenants for a full sweep.
type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]int64, error)
}

// RebuildHandler processes TaskLedgerRebuild tasks.
type RebuildHandler struct {
	engine  Rebuilder
	tenants TenantLister
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewRebuildHandler constructs the handler. Metrics may be nil.
func NewRebuildHandler(engine Rebuilder, tenants TenantLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *RebuildHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildHandler{engine: engine, tenants: tenants, logger: logger, metrics: metrics}
}

// Handle rebuilds the tenant named in the payload, or every active tenant
// when none is named. Rebuild failures are returned so Asynq retries them.
func (h *RebuildHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerRebuildPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.metrics.Track("ledger_rebuild")
	return tracker.End(h.handle(ctx, payload))
}

func (h *RebuildHandler) handle(ctx context.Context, payload LedgerRebuildPayload) error {
	if payload.TenantID != 0 {
		result, err := h.engine.Rebuild(ctx, payload.TenantID)
		if err != nil {
			return err
		}
		h.logger.Info("ledger rebuilt",
			slog.Int64("tenant_id", payload.TenantID), slog.Int("entries", result.EntriesPosted))
		return nil
	}

	ids, err := h.tenants.ListTenantIDs(ctx)
	if err != nil {
		return err
	}
	results, err := h.engine.RebuildAll(ctx, ids)
	if err != nil {
		return err
	}
	var entries int
	for _, r := range results {
		entries += r.EntriesPosted
	}
	h.logger.Info("ledger sweep finished", slog.Int("tenants", len(results)), slog.Int("entries", entries))
	return nil
}
