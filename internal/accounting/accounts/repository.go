package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bukudapur/bukudapur/internal/shared"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, tenantID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, code, name, category, is_active, created_at
FROM accounts WHERE tenant_id=$1 ORDER BY code ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.ID, &acc.TenantID, &acc.Code, &acc.Name, &acc.Category, &acc.IsActive, &acc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (r *repository) GetByCode(ctx context.Context, tenantID int64, code string) (Account, error) {
	var acc Account
	err := r.db.QueryRow(ctx, `SELECT id, tenant_id, code, name, category, is_active, created_at
FROM accounts WHERE tenant_id=$1 AND code=$2`, tenantID, code).
		Scan(&acc.ID, &acc.TenantID, &acc.Code, &acc.Name, &acc.Category, &acc.IsActive, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return acc, nil
}

func (r *repository) Insert(ctx context.Context, acc Account) (Account, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO accounts (tenant_id, code, name, category, is_active)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`,
		acc.TenantID, acc.Code, acc.Name, acc.Category, acc.IsActive).
		Scan(&acc.ID, &acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicate
		}
		return Account{}, err
	}
	return acc, nil
}

func (r *repository) SetActive(ctx context.Context, tenantID int64, code string, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET is_active=$3 WHERE tenant_id=$1 AND code=$2`, tenantID, code, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
