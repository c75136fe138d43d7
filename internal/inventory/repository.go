package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/shared"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const itemColumns = `id, tenant_id, name, category, unit, min_stock, stock_qty, avg_cost, is_active, created_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.TenantID, &it.Name, &it.Category, &it.Unit,
		&it.MinStock, &it.StockQty, &it.AvgCost, &it.IsActive, &it.CreatedAt)
	return it, err
}

func (r *repository) ListItems(ctx context.Context, tenantID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM items
WHERE tenant_id=$1 ORDER BY name ASC, id ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repository) InsertItem(ctx context.Context, item Item) (Item, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO items
(tenant_id, name, category, unit, min_stock, stock_qty, avg_cost, is_active)
VALUES ($1,$2,$3,$4,$5,0,0,$6) RETURNING `+itemColumns,
		item.TenantID, item.Name, item.Category, item.Unit, item.MinStock, item.IsActive)
	return scanItem(row)
}

const usageColumns = `id, tenant_id, date, item_id, item_name, qty, unit_cost, total_cost,
hpp_account_code, hpp_account_name, memo, journal_entry_id, created_at`

func scanUsage(row pgx.Row) (Usage, error) {
	var u Usage
	err := row.Scan(&u.ID, &u.TenantID, &u.Date, &u.ItemID, &u.ItemName, &u.Qty, &u.UnitCost, &u.TotalCost,
		&u.HPPAccountCode, &u.HPPAccountName, &u.Memo, &u.JournalEntryID, &u.CreatedAt)
	return u, err
}

func (r *repository) ListUsages(ctx context.Context, tenantID int64) ([]Usage, error) {
	rows, err := r.db.Query(ctx, `SELECT `+usageColumns+` FROM stock_usages
WHERE tenant_id=$1 ORDER BY date DESC, id DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Usage
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, tenantID, itemID int64) (Item, error) {
	it, err := scanItem(r.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items
WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return it, nil
}

func (r *txRepository) UpdateItemValuation(ctx context.Context, tenantID, itemID int64, qty, avgCost float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE items SET stock_qty=$3, avg_cost=$4 WHERE tenant_id=$1 AND id=$2`,
		tenantID, itemID, qty, avgCost)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertUsage(ctx context.Context, u Usage) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_usages
(tenant_id, date, item_id, item_name, qty, unit_cost, total_cost, hpp_account_code, hpp_account_name, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		u.TenantID, u.Date, u.ItemID, u.ItemName, u.Qty, u.UnitCost, u.TotalCost,
		u.HPPAccountCode, u.HPPAccountName, u.Memo).Scan(&id)
	return id, err
}

func (r *txRepository) DeleteUsage(ctx context.Context, tenantID, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM stock_usages WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetAccountRef(ctx context.Context, tenantID int64, code string) (journals.Ref, error) {
	var ref journals.Ref
	err := r.tx.QueryRow(ctx, `SELECT code, name FROM accounts
WHERE tenant_id=$1 AND code=$2 AND is_active`, tenantID, code).Scan(&ref.Code, &ref.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return journals.Ref{}, fmt.Errorf("account %q: %w", code, shared.ErrMissingAccount)
		}
		return journals.Ref{}, err
	}
	return ref, nil
}

func (r *txRepository) ReplaceJournal(ctx context.Context, tenantID int64, draft journals.Draft) (int64, error) {
	if err := journals.DeleteForSourceTx(ctx, r.tx, tenantID, draft.Source, draft.SourceID); err != nil {
		return 0, err
	}
	return journals.InsertTx(ctx, r.tx, tenantID, draft)
}

func (r *txRepository) DropJournal(ctx context.Context, tenantID int64, source journals.Source, sourceID int64) error {
	return journals.DeleteForSourceTx(ctx, r.tx, tenantID, source, sourceID)
}

func (r *txRepository) SetUsageJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_usages SET journal_entry_id=$3 WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, entryID)
	return err
}
