package journals

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts journal storage for the service.
type RepositoryPort interface {
	ListForTenant(ctx context.Context, tenantID int64) ([]JournalEntry, error)
	// SumForAccount aggregates debit and credit for an account code within
	// [from, before). Nil bounds mean unbounded.
	SumForAccount(ctx context.Context, tenantID int64, accountCode string, from, before *time.Time) (debit, credit float64, err error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

func (r *repository) ListForTenant(ctx context.Context, tenantID int64) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, date, memo, source, source_id, created_at
FROM journal_entries WHERE tenant_id=$1 ORDER BY date ASC, id ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Date, &e.Memo, &e.Source, &e.SourceID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range entries {
		lines, err := r.linesFor(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Lines = lines
	}
	return entries, nil
}

func (r *repository) linesFor(ctx context.Context, entryID int64) ([]JournalLine, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, entry_id, account_code, account_name, debit, credit
FROM journal_lines WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.TenantID, &l.EntryID, &l.AccountCode, &l.AccountName, &l.Debit, &l.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) SumForAccount(ctx context.Context, tenantID int64, accountCode string, from, before *time.Time) (float64, float64, error) {
	query := `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.tenant_id=$1 AND l.account_code=$2`
	args := []any{tenantID, accountCode}
	if from != nil {
		args = append(args, *from)
		query += ` AND e.date >= $3`
	}
	if before != nil {
		args = append(args, *before)
		if from != nil {
			query += ` AND e.date < $4`
		} else {
			query += ` AND e.date < $3`
		}
	}
	var debit, credit float64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&debit, &credit); err != nil {
		return 0, 0, err
	}
	return debit, credit, nil
}

// InsertTx writes an entry and its lines inside the caller's transaction.
// Domain repositories use it so a source row, its journal, and the
// back-reference commit together.
func InsertTx(ctx context.Context, tx pgx.Tx, tenantID int64, draft Draft) (int64, error) {
	var entryID int64
	err := tx.QueryRow(ctx, `INSERT INTO journal_entries (tenant_id, date, memo, source, source_id)
VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		tenantID, draft.Date, draft.Memo, draft.Source, draft.SourceID).Scan(&entryID)
	if err != nil {
		return 0, err
	}
	for _, line := range draft.Lines {
		if _, err := tx.Exec(ctx, `INSERT INTO journal_lines (tenant_id, entry_id, account_code, account_name, debit, credit)
VALUES ($1,$2,$3,$4,$5,$6)`,
			tenantID, entryID, line.Account.Code, line.Account.Name, line.Debit, line.Credit); err != nil {
			return 0, err
		}
	}
	return entryID, nil
}

// DeleteForSourceTx removes the entry owned by a source transaction, lines
// first. Callers clear the source row's back-reference beforehand.
func DeleteForSourceTx(ctx context.Context, tx pgx.Tx, tenantID int64, source Source, sourceID int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE tenant_id=$1 AND entry_id IN (
SELECT id FROM journal_entries WHERE tenant_id=$1 AND source=$2 AND source_id=$3)`,
		tenantID, source, sourceID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `DELETE FROM journal_entries WHERE tenant_id=$1 AND source=$2 AND source_id=$3`,
		tenantID, source, sourceID)
	return err
}
