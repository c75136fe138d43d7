package tenant

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

func (r *repository) GetByCode(ctx context.Context, code string) (AccessCode, error) {
	var ac AccessCode
	err := r.db.QueryRow(ctx, `SELECT id, code, kitchen_name, status, start_at, expires_at, created_at
FROM access_codes WHERE code=$1`, code).
		Scan(&ac.ID, &ac.Code, &ac.KitchenName, &ac.Status, &ac.StartAt, &ac.ExpiresAt, &ac.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccessCode{}, shared.ErrNotFound
		}
		return AccessCode{}, err
	}
	return ac, nil
}

func (r *repository) Insert(ctx context.Context, ac AccessCode) (AccessCode, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO access_codes (code, kitchen_name, status, start_at, expires_at)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`,
		ac.Code, ac.KitchenName, ac.Status, ac.StartAt, ac.ExpiresAt).
		Scan(&ac.ID, &ac.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return AccessCode{}, shared.ErrDuplicate
		}
		return AccessCode{}, err
	}
	return ac, nil
}

func (r *repository) Update(ctx context.Context, ac AccessCode) error {
	cmd, err := r.db.Exec(ctx, `UPDATE access_codes SET kitchen_name=$2, status=$3, start_at=$4, expires_at=$5 WHERE id=$1`,
		ac.ID, ac.KitchenName, ac.Status, ac.StartAt, ac.ExpiresAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, limit int) ([]AccessCode, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, kitchen_name, status, start_at, expires_at, created_at
FROM access_codes ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccessCode
	for rows.Next() {
		var ac AccessCode
		if err := rows.Scan(&ac.ID, &ac.Code, &ac.KitchenName, &ac.Status, &ac.StartAt, &ac.ExpiresAt, &ac.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ac)
	}
	return out, rows.Err()
}
