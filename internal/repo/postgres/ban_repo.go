package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BanRepo struct {
	pool *pgxpool.Pool
}

func NewBanRepo(pool *pgxpool.Pool) *BanRepo {
	return &BanRepo{pool: pool}
}

// Ban starts or restarts the ban window of a sender.
func (r *BanRepo) Ban(ctx context.Context, senderID string, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return fmt.Errorf("invalid sender id")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO relay_bans (sender_id, banned_at)
VALUES ($1, $2)
ON CONFLICT (sender_id) DO UPDATE SET
	banned_at = EXCLUDED.banned_at
`, senderID, at.UTC()); err != nil {
		return fmt.Errorf("upsert ban: %w", err)
	}

	return nil
}

func (r *BanRepo) BannedSince(ctx context.Context, senderID string, since time.Time) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var banned bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM relay_bans
	WHERE sender_id = $1
		AND banned_at > $2
)
`, strings.TrimSpace(senderID), since.UTC()).Scan(&banned)
	if err != nil {
		return false, fmt.Errorf("check ban: %w", err)
	}

	return banned, nil
}

func (r *BanRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM relay_bans WHERE banned_at <= $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired bans: %w", err)
	}
	return tag.RowsAffected(), nil
}
