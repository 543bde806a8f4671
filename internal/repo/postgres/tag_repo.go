package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

var ErrTagNotFound = errors.New("tag not found")

type TagRepo struct {
	pool *pgxpool.Pool
}

func NewTagRepo(pool *pgxpool.Pool) *TagRepo {
	return &TagRepo{pool: pool}
}

// Upsert inserts a canonical tag or returns the id of the existing row.
func (r *TagRepo) Upsert(ctx context.Context, tag string) (model.Tag, error) {
	if r.pool == nil {
		return model.Tag{}, fmt.Errorf("postgres pool is nil")
	}
	if tag == "" {
		return model.Tag{}, fmt.Errorf("tag is required")
	}

	var out model.Tag
	err := r.pool.QueryRow(ctx, `
INSERT INTO relay_tags (tag, created_at)
VALUES ($1, NOW())
ON CONFLICT (tag) DO UPDATE SET
	tag = EXCLUDED.tag
RETURNING id, tag
`, tag).Scan(&out.ID, &out.Tag)
	if err != nil {
		return model.Tag{}, fmt.Errorf("upsert tag: %w", err)
	}

	return out, nil
}

func (r *TagRepo) Delete(ctx context.Context, tag string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM relay_tags WHERE tag = $1`, tag)
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *TagRepo) List(ctx context.Context) ([]model.Tag, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, tag
FROM relay_tags
ORDER BY tag
`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Tag, error) {
		var t model.Tag
		err := row.Scan(&t.ID, &t.Tag)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan tags: %w", err)
	}

	return tags, nil
}

func (r *TagRepo) ByID(ctx context.Context, id int64) (model.Tag, error) {
	if r.pool == nil {
		return model.Tag{}, fmt.Errorf("postgres pool is nil")
	}

	var t model.Tag
	err := r.pool.QueryRow(ctx, `SELECT id, tag FROM relay_tags WHERE id = $1`, id).Scan(&t.ID, &t.Tag)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Tag{}, ErrTagNotFound
		}
		return model.Tag{}, fmt.Errorf("find tag: %w", err)
	}

	return t, nil
}
