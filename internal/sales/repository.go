package sales

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

const invoiceColumns = `id, tenant_id, invoice_no, date, customer_name, total, paid_amount, status,
ar_account_code, ar_account_name, revenue_account_code, revenue_account_name, memo, journal_entry_id, created_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.InvoiceNo, &inv.Date, &inv.CustomerName,
		&inv.Total, &inv.PaidAmount, &inv.Status,
		&inv.ARAccountCode, &inv.ARAccountName, &inv.RevenueAccountCode, &inv.RevenueAccountName,
		&inv.Memo, &inv.JournalEntryID, &inv.CreatedAt)
	return inv, err
}

func (r *repository) ListInvoices(ctx context.Context, tenantID int64) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+` FROM sales_invoices
WHERE tenant_id=$1 ORDER BY date DESC, id DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *repository) GetInvoice(ctx context.Context, tenantID, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM sales_invoices
WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, invoice_id, description, qty, unit_price, subtotal
FROM sales_invoice_lines WHERE tenant_id=$1 AND invoice_id=$2 ORDER BY id`, tenantID, id)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.TenantID, &l.InvoiceID, &l.Description, &l.Qty, &l.UnitPrice, &l.Subtotal); err != nil {
			return Invoice{}, err
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

// NextInvoiceSeq continues from the highest number ever issued in the
// period. Counting rows would reuse a number after a deletion and trip
// the (tenant_id, invoice_no) unique constraint.
func (r *txRepository) NextInvoiceSeq(ctx context.Context, tenantID int64, period string) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(MAX(substring(invoice_no from 12)::int), 0)+1
FROM sales_invoices
WHERE tenant_id=$1 AND invoice_no LIKE 'INV-'||$2||'-%'`, tenantID, period).Scan(&seq)
	return seq, err
}

func (r *txRepository) InsertInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales_invoices
(tenant_id, invoice_no, date, customer_name, total, paid_amount, status,
 ar_account_code, ar_account_name, revenue_account_code, revenue_account_name, memo)
VALUES ($1,$2,$3,$4,$5,0,$6,$7,$8,$9,$10,$11) RETURNING id`,
		inv.TenantID, inv.InvoiceNo, inv.Date, inv.CustomerName, inv.Total, inv.Status,
		inv.ARAccountCode, inv.ARAccountName, inv.RevenueAccountCode, inv.RevenueAccountName, inv.Memo).Scan(&id)
	return id, err
}

func (r *txRepository) InsertInvoiceLine(ctx context.Context, l InvoiceLine) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales_invoice_lines (tenant_id, invoice_id, description, qty, unit_price, subtotal)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		l.TenantID, l.InvoiceID, l.Description, l.Qty, l.UnitPrice, l.Subtotal).Scan(&id)
	return id, err
}

func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, tenantID, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM sales_invoices
WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) SetInvoicePayment(ctx context.Context, tenantID, id int64, paid float64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE sales_invoices SET paid_amount=$3, status=$4 WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, paid, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteInvoice(ctx context.Context, tenantID, id int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM sales_invoice_lines WHERE tenant_id=$1 AND invoice_id=$2`, tenantID, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM sales_invoices WHERE tenant_id=$1 AND id=$2`, tenantID, id)
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
	err := r.tx.QueryRow(ctx, `INSERT INTO ar_payments (tenant_id, date, invoice_id, amount, cash_account_code, cash_account_name, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		p.TenantID, p.Date, p.InvoiceID, p.Amount, p.CashAccountCode, p.CashAccountName, p.Memo).Scan(&id)
	return id, err
}

func (r *txRepository) DeletePayment(ctx context.Context, tenantID, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM ar_payments WHERE tenant_id=$1 AND id=$2`, tenantID, id)
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
	err := r.tx.QueryRow(ctx, `SELECT id, tenant_id, date, invoice_id, amount, cash_account_code, cash_account_name, memo, journal_entry_id, created_at
FROM ar_payments WHERE tenant_id=$1 AND id=$2`, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.Date, &p.InvoiceID, &p.Amount,
		&p.CashAccountCode, &p.CashAccountName, &p.Memo, &p.JournalEntryID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *txRepository) SumPayments(ctx context.Context, tenantID, invoiceID int64) (float64, error) {
	var sum float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount),0) FROM ar_payments
WHERE tenant_id=$1 AND invoice_id=$2`, tenantID, invoiceID).Scan(&sum)
	return sum, err
}

func (r *txRepository) ListPaymentIDs(ctx context.Context, tenantID, invoiceID int64) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `SELECT id FROM ar_payments WHERE tenant_id=$1 AND invoice_id=$2 ORDER BY id`,
		tenantID, invoiceID)
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

func (r *txRepository) SetInvoiceJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE sales_invoices SET journal_entry_id=$3 WHERE tenant_id=$1 AND id=$2`, tenantID, id, entryID)
	return err
}

func (r *txRepository) SetPaymentJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE ar_payments SET journal_entry_id=$3 WHERE tenant_id=$1 AND id=$2`, tenantID, id, entryID)
	return err
}
