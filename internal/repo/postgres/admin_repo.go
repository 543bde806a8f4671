package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

func (r *AdminRepo) List(ctx context.Context) ([]model.Admin, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, display_name, signature, created_at
FROM relay_admins
ORDER BY created_at, id
`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	admins := make([]model.Admin, 0)
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.DisplayName, &a.Signature, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}

	return admins, nil
}

func (r *AdminRepo) ByID(ctx context.Context, id int64) (model.Admin, error) {
	if r.pool == nil {
		return model.Admin{}, fmt.Errorf("postgres pool is nil")
	}

	var a model.Admin
	err := r.pool.QueryRow(ctx, `
SELECT id, display_name, signature, created_at
FROM relay_admins
WHERE id = $1
`, id).Scan(&a.ID, &a.DisplayName, &a.Signature, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Admin{}, ErrAdminNotFound
		}
		return model.Admin{}, fmt.Errorf("find admin: %w", err)
	}

	return a, nil
}

// Upsert adds the admin or refreshes the display name, keeping the signature.
func (r *AdminRepo) Upsert(ctx context.Context, id int64, displayName string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return fmt.Errorf("invalid admin id")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO relay_admins (id, display_name, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (id) DO UPDATE SET
	display_name = EXCLUDED.display_name
`, id, strings.TrimSpace(displayName)); err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}

	return nil
}

func (r *AdminRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM relay_admins WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete admin: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AdminRepo) UpdateSignature(ctx context.Context, id int64, signature string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE relay_admins
SET signature = $2
WHERE id = $1
`, id, strings.TrimSpace(signature))
	if err != nil {
		return fmt.Errorf("update admin signature: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}

	return nil
}
