package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/inventory"
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

const purchaseColumns = `id, tenant_id, date, supplier_id, supplier_name, total, is_paid, memo, journal_entry_id, created_at`

func scanPurchase(row pgx.Row) (Purchase, error) {
	var p Purchase
	err := row.Scan(&p.ID, &p.TenantID, &p.Date, &p.SupplierID, &p.SupplierName,
		&p.Total, &p.IsPaid, &p.Memo, &p.JournalEntryID, &p.CreatedAt)
	return p, err
}

func (r *repository) ListPurchases(ctx context.Context, tenantID int64) ([]Purchase, error) {
	rows, err := r.db.Query(ctx, `SELECT `+purchaseColumns+` FROM purchases
WHERE tenant_id=$1 ORDER BY date DESC, id DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) GetPurchase(ctx context.Context, tenantID, id int64) (Purchase, error) {
	p, err := scanPurchase(r.db.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases
WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, shared.ErrNotFound
		}
		return Purchase{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, purchase_id, item_id, item_name, qty, unit_cost, subtotal
FROM purchase_items WHERE tenant_id=$1 AND purchase_id=$2 ORDER BY id`, tenantID, id)
	if err != nil {
		return Purchase{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l PurchaseLine
		if err := rows.Scan(&l.ID, &l.TenantID, &l.PurchaseID, &l.ItemID, &l.ItemName,
			&l.Qty, &l.UnitCost, &l.Subtotal); err != nil {
			return Purchase{}, err
		}
		p.Lines = append(p.Lines, l)
	}
	return p, rows.Err()
}

func (r *repository) ListSuppliers(ctx context.Context, tenantID int64) ([]Supplier, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, name, phone, address, is_active, created_at
FROM suppliers WHERE tenant_id=$1 ORDER BY name ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.Phone, &s.Address, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) InsertSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO suppliers (tenant_id, name, phone, address, is_active)
VALUES ($1,$2,$3,$4,$5) RETURNING id, tenant_id, name, phone, address, is_active, created_at`,
		s.TenantID, s.Name, s.Phone, s.Address, s.IsActive)
	var out Supplier
	err := row.Scan(&out.ID, &out.TenantID, &out.Name, &out.Phone, &out.Address, &out.IsActive, &out.CreatedAt)
	return out, err
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchases (tenant_id, date, supplier_id, supplier_name, total, is_paid, memo)
VALUES ($1,$2,$3,$4,$5,false,$6) RETURNING id`,
		p.TenantID, p.Date, p.SupplierID, p.SupplierName, p.Total, p.Memo).Scan(&id)
	return id, err
}

func (r *txRepository) InsertPurchaseLine(ctx context.Context, l PurchaseLine) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_items (tenant_id, purchase_id, item_id, item_name, qty, unit_cost, subtotal)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		l.TenantID, l.PurchaseID, l.ItemID, l.ItemName, l.Qty, l.UnitCost, l.Subtotal).Scan(&id)
	return id, err
}

func (r *txRepository) GetPurchaseForUpdate(ctx context.Context, tenantID, id int64) (Purchase, error) {
	p, err := scanPurchase(r.tx.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases
WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, shared.ErrNotFound
		}
		return Purchase{}, err
	}
	return p, nil
}

func (r *txRepository) SetPurchasePaid(ctx context.Context, tenantID, id int64, paid bool) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE purchases SET is_paid=$3 WHERE tenant_id=$1 AND id=$2`, tenantID, id, paid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) DeletePurchase(ctx context.Context, tenantID, id int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM purchase_items WHERE tenant_id=$1 AND purchase_id=$2`, tenantID, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM purchases WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO ap_payments (tenant_id, date, purchase_id, amount, cash_account_code, cash_account_name, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		p.TenantID, p.Date, p.PurchaseID, p.Amount, p.CashAccountCode, p.CashAccountName, p.Memo).Scan(&id)
	return id, err
}

func (r *txRepository) DeletePayment(ctx context.Context, tenantID, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM ap_payments WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetPayment(ctx context.Context, tenantID, id int64) (Payment, error) {
	var p Payment
	err := r.tx.QueryRow(ctx, `SELECT id, tenant_id, date, purchase_id, amount, cash_account_code, cash_account_name, memo, journal_entry_id, created_at
FROM ap_payments WHERE tenant_id=$1 AND id=$2`, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.Date, &p.PurchaseID, &p.Amount,
		&p.CashAccountCode, &p.CashAccountName, &p.Memo, &p.JournalEntryID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *txRepository) SumPayments(ctx context.Context, tenantID, purchaseID int64) (float64, error) {
	var sum float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount),0) FROM ap_payments
WHERE tenant_id=$1 AND purchase_id=$2`, tenantID, purchaseID).Scan(&sum)
	return sum, err
}

func (r *txRepository) ListPaymentIDs(ctx context.Context, tenantID, purchaseID int64) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `SELECT id FROM ap_payments WHERE tenant_id=$1 AND purchase_id=$2 ORDER BY id`,
		tenantID, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, tenantID, itemID int64) (inventory.Item, error) {
	var it inventory.Item
	err := r.tx.QueryRow(ctx, `SELECT id, tenant_id, name, category, unit, min_stock, stock_qty, avg_cost, is_active, created_at
FROM items WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, itemID).Scan(
		&it.ID, &it.TenantID, &it.Name, &it.Category, &it.Unit,
		&it.MinStock, &it.StockQty, &it.AvgCost, &it.IsActive, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Item{}, shared.ErrNotFound
		}
		return inventory.Item{}, err
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

func (r *txRepository) SetPurchaseJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE purchases SET journal_entry_id=$3 WHERE tenant_id=$1 AND id=$2`, tenantID, id, entryID)
	return err
}

func (r *txRepository) SetPaymentJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE ap_payments SET journal_entry_id=$3 WHERE tenant_id=$1 AND id=$2`, tenantID, id, entryID)
	return err
}
