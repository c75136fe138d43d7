package rebuild

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bukudapur/bukudapur/internal/accounting/journals"
	"github.com/bukudapur/bukudapur/internal/cash"
	"github.com/bukudapur/bukudapur/internal/inventory"
	"github.com/bukudapur/bukudapur/internal/procurement"
	"github.com/bukudapur/bukudapur/internal/sales"
	"github.com/bukudapur/bukudapur/internal/shared"
)

// Repository extends RepositoryPort with tenant discovery for full sweeps.
type Repository interface {
	RepositoryPort
	ListTenantIDs(ctx context.Context) ([]int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
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

// ListTenantIDs returns active tenants for a full rebuild sweep.
func (r *repository) ListTenantIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM access_codes WHERE status IN ('trial','active') ORDER BY id`)
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

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) ListItems(ctx context.Context, tenantID int64) ([]inventory.Item, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, name, category, unit, min_stock, stock_qty, avg_cost, is_active, created_at
FROM items WHERE tenant_id=$1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []inventory.Item
	for rows.Next() {
		var it inventory.Item
		if err := rows.Scan(&it.ID, &it.TenantID, &it.Name, &it.Category, &it.Unit,
			&it.MinStock, &it.StockQty, &it.AvgCost, &it.IsActive, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *txRepository) UpdateItemValuation(ctx context.Context, tenantID, itemID int64, qty, avgCost float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE items SET stock_qty=$3, avg_cost=$4 WHERE tenant_id=$1 AND id=$2`,
		tenantID, itemID, qty, avgCost)
	return err
}

func (r *txRepository) ListUsages(ctx context.Context, tenantID int64) ([]inventory.Usage, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, date, item_id, item_name, qty, unit_cost, total_cost,
hpp_account_code, hpp_account_name, memo, journal_entry_id, created_at
FROM stock_usages WHERE tenant_id=$1 ORDER BY date, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []inventory.Usage
	for rows.Next() {
		var u inventory.Usage
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Date, &u.ItemID, &u.ItemName, &u.Qty, &u.UnitCost, &u.TotalCost,
			&u.HPPAccountCode, &u.HPPAccountName, &u.Memo, &u.JournalEntryID, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *txRepository) UpdateUsageCost(ctx context.Context, tenantID, id int64, unitCost, totalCost float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_usages SET unit_cost=$3, total_cost=$4 WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, unitCost, totalCost)
	return err
}

func (r *txRepository) ListPurchases(ctx context.Context, tenantID int64) ([]procurement.Purchase, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, date, supplier_id, supplier_name, total, is_paid, memo, journal_entry_id, created_at
FROM purchases WHERE tenant_id=$1 ORDER BY date, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []procurement.Purchase
	for rows.Next() {
		var p procurement.Purchase
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Date, &p.SupplierID, &p.SupplierName,
			&p.Total, &p.IsPaid, &p.Memo, &p.JournalEntryID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) ListPurchaseLines(ctx context.Context, tenantID int64) ([]procurement.PurchaseLine, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, purchase_id, item_id, item_name, qty, unit_cost, subtotal
FROM purchase_items WHERE tenant_id=$1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []procurement.PurchaseLine
	for rows.Next() {
		var l procurement.PurchaseLine
		if err := rows.Scan(&l.ID, &l.TenantID, &l.PurchaseID, &l.ItemID, &l.ItemName,
			&l.Qty, &l.UnitCost, &l.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *txRepository) ListAPPayments(ctx context.Context, tenantID int64) ([]procurement.Payment, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, date, purchase_id, amount, cash_account_code, cash_account_name, memo, journal_entry_id, created_at
FROM ap_payments WHERE tenant_id=$1 ORDER BY date, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []procurement.Payment
	for rows.Next() {
		var p procurement.Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Date, &p.PurchaseID, &p.Amount,
			&p.CashAccountCode, &p.CashAccountName, &p.Memo, &p.JournalEntryID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) SetPurchasePaid(ctx context.Context, tenantID, id int64, paid bool) error {
	_, err := r.tx.Exec(ctx, `UPDATE purchases SET is_paid=$3 WHERE tenant_id=$1 AND id=$2`, tenantID, id, paid)
	return err
}

func (r *txRepository) ListInvoices(ctx context.Context, tenantID int64) ([]sales.Invoice, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, invoice_no, date, customer_name, total, paid_amount, status,
ar_account_code, ar_account_name, revenue_account_code, revenue_account_name, memo, journal_entry_id, created_at
FROM sales_invoices WHERE tenant_id=$1 ORDER BY date, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []sales.Invoice
	for rows.Next() {
		var inv sales.Invoice
		if err := rows.Scan(&inv.ID, &inv.TenantID, &inv.InvoiceNo, &inv.Date, &inv.CustomerName,
			&inv.Total, &inv.PaidAmount, &inv.Status,
			&inv.ARAccountCode, &inv.ARAccountName, &inv.RevenueAccountCode, &inv.RevenueAccountName,
			&inv.Memo, &inv.JournalEntryID, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *txRepository) ListARPayments(ctx context.Context, tenantID int64) ([]sales.Payment, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, date, invoice_id, amount, cash_account_code, cash_account_name, memo, journal_entry_id, created_at
FROM ar_payments WHERE tenant_id=$1 ORDER BY date, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []sales.Payment
	for rows.Next() {
		var p sales.Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Date, &p.InvoiceID, &p.Amount,
			&p.CashAccountCode, &p.CashAccountName, &p.Memo, &p.JournalEntryID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) SetInvoicePayment(ctx context.Context, tenantID, id int64, paid float64, status sales.Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE sales_invoices SET paid_amount=$3, status=$4 WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, paid, status)
	return err
}

func (r *txRepository) ListCashTransactions(ctx context.Context, tenantID int64) ([]cash.Transaction, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, date, direction, cash_account_code, cash_account_name,
counter_account_code, counter_account_name, amount, memo, journal_entry_id, created_at
FROM cash_transactions WHERE tenant_id=$1 ORDER BY date, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []cash.Transaction
	for rows.Next() {
		var t cash.Transaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Date, &t.Direction, &t.CashAccountCode, &t.CashAccountName,
			&t.CounterAccountCode, &t.CounterAccountName, &t.Amount, &t.Memo, &t.JournalEntryID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

var refTables = map[journals.Source]string{
	journals.SourceCash:         "cash_transactions",
	journals.SourcePurchase:     "purchases",
	journals.SourceAPPayment:    "ap_payments",
	journals.SourceStockUsage:   "stock_usages",
	journals.SourceSalesInvoice: "sales_invoices",
	journals.SourceARPayment:    "ar_payments",
}

func (r *txRepository) ClearJournalRefs(ctx context.Context, tenantID int64) error {
	for _, table := range refTables {
		if _, err := r.tx.Exec(ctx, `UPDATE `+table+` SET journal_entry_id=NULL WHERE tenant_id=$1`, tenantID); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) WipeJournals(ctx context.Context, tenantID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE tenant_id=$1`, tenantID); err != nil {
		return err
	}
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE tenant_id=$1`, tenantID)
	return err
}

func (r *txRepository) InsertJournal(ctx context.Context, tenantID int64, draft journals.Draft) (int64, error) {
	return journals.InsertTx(ctx, r.tx, tenantID, draft)
}

func (r *txRepository) SetSourceJournalRef(ctx context.Context, tenantID int64, source journals.Source, id, entryID int64) error {
	table, ok := refTables[source]
	if !ok {
		return fmt.Errorf("rebuild: no backref table for source %q", source)
	}
	_, err := r.tx.Exec(ctx, `UPDATE `+table+` SET journal_entry_id=$3 WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, entryID)
	return err
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
