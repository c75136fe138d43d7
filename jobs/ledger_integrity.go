package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/bukudapur/bukudapur/internal/jobs"
)

// IntegrityHandler processes TaskLedgerIntegrity tasks: it scans every
// tenant for unbalanced journal entries and negative stock, which should
// both be impossible and indicate a bug or manual tampering when found.
type IntegrityHandler struct {
	db      *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewIntegrityHandler constructs the handler. Metrics may be nil.
func NewIntegrityHandler(db *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntegrityHandler{db: db, logger: logger, metrics: metrics}
}

// Handle runs the scan. Findings are logged and counted, not repaired; a
// rebuild is the repair tool.
func (h *IntegrityHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.metrics.Track("ledger_integrity")
	return tracker.End(h.scan(ctx))
}

func (h *IntegrityHandler) scan(ctx context.Context) error {
	unbalanced, err := h.scanUnbalancedEntries(ctx)
	if err != nil {
		return err
	}
	negative, err := h.scanNegativeStock(ctx)
	if err != nil {
		return err
	}
	h.metrics.AddFindings("unbalanced_entry", unbalanced)
	h.metrics.AddFindings("negative_stock", negative)

	if unbalanced == 0 && negative == 0 {
		h.logger.Info("ledger integrity clean")
		return nil
	}
	h.logger.Warn("ledger integrity findings",
		slog.Int("unbalanced_entries", unbalanced), slog.Int("negative_stock_items", negative))
	return nil
}

func (h *IntegrityHandler) scanUnbalancedEntries(ctx context.Context) (int, error) {
	rows, err := h.db.Query(ctx, `SELECT e.tenant_id, e.id, SUM(l.debit)-SUM(l.credit) AS diff
FROM journal_entries e JOIN journal_lines l ON l.entry_id = e.id
GROUP BY e.tenant_id, e.id
HAVING ABS(SUM(l.debit)-SUM(l.credit)) > 0.0001`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		var tenantID, entryID int64
		var diff float64
		if err := rows.Scan(&tenantID, &entryID, &diff); err != nil {
			return count, err
		}
		count++
		h.logger.Warn("unbalanced journal entry",
			slog.Int64("tenant_id", tenantID), slog.Int64("entry_id", entryID), slog.Float64("diff", diff))
	}
	return count, rows.Err()
}

func (h *IntegrityHandler) scanNegativeStock(ctx context.Context) (int, error) {
	rows, err := h.db.Query(ctx, `SELECT tenant_id, id, stock_qty FROM items WHERE stock_qty < -0.0001`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		var tenantID, itemID int64
		var qty float64
		if err := rows.Scan(&tenantID, &itemID, &qty); err != nil {
			return count, err
		}
		count++
		h.logger.Warn("negative stock",
			slog.Int64("tenant_id", tenantID), slog.Int64("item_id", itemID), slog.Float64("qty", qty))
	}
	return count, rows.Err()
}
