package cash

import (
	"context"
	"errors"

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

const selectColumns = `id, tenant_id, date, direction, cash_account_code, cash_account_name,
counter_account_code, counter_account_name, amount, memo, journal_entry_id, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.TenantID, &t.Date, &t.Direction, &t.CashAccountCode, &t.CashAccountName,
		&t.CounterAccountCode, &t.CounterAccountName, &t.Amount, &t.Memo, &t.JournalEntryID, &t.CreatedAt)
	return t, err
}

func (r *repository) List(ctx context.Context, tenantID int64) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM cash_transactions
WHERE tenant_id=$1 ORDER BY date DESC, id DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM cash_transactions
WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, shared.ErrNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, t Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO cash_transactions
(tenant_id, date, direction, cash_account_code, cash_account_name, counter_account_code, counter_account_name, amount, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		t.TenantID, t.Date, t.Direction, t.CashAccountCode, t.CashAccountName,
		t.CounterAccountCode, t.CounterAccountName, t.Amount, t.Memo).Scan(&id)
	return id, err
}

func (r *txRepository) Update(ctx context.Context, t Transaction) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE cash_transactions SET date=$3, direction=$4, cash_account_code=$5,
cash_account_name=$6, counter_account_code=$7, counter_account_name=$8, amount=$9, memo=$10
WHERE tenant_id=$1 AND id=$2`,
		t.TenantID, t.ID, t.Date, t.Direction, t.CashAccountCode, t.CashAccountName,
		t.CounterAccountCode, t.CounterAccountName, t.Amount, t.Memo)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) Delete(ctx context.Context, tenantID, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM cash_transactions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
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

func (r *txRepository) SetJournalRef(ctx context.Context, tenantID, id int64, entryID *int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE cash_transactions SET journal_entry_id=$3 WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, entryID)
	return err
}
