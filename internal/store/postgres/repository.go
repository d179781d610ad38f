// Package postgres provides Postgres-backed persistence for activity counters.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/rankboard/internal/domain"
	"example.com/rankboard/internal/observability"
)

// Repository stores per-user activity counters and their assigned ranks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the users table and its ranking index if missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            user_id       TEXT PRIMARY KEY,
            username      TEXT NOT NULL DEFAULT '',
            message_count BIGINT NOT NULL DEFAULT 0,
            current_rank  INTEGER,
            last_updated  TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_users_message_count
            ON users (message_count DESC)`,
	}
	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordActivity increments the user's counter, creating the row on first
// sight. The increment is a single atomic statement; the username is
// last-write-wins. Returns the counter value after the increment.
func (r *Repository) RecordActivity(ctx context.Context, userID, username string) (int64, error) {
	const stmt = `
        INSERT INTO users (user_id, username, message_count, last_updated)
        VALUES ($1, $2, 1, now())
        ON CONFLICT (user_id) DO UPDATE
            SET message_count = users.message_count + 1,
                username      = EXCLUDED.username,
                last_updated  = now()
        RETURNING message_count`

	var count int64
	if err := r.pool.QueryRow(ctx, stmt, userID, username).Scan(&count); err != nil {
		return 0, err
	}
	observability.RecordActivityRecorded(time.Now().UTC())
	return count, nil
}

// TopRanked returns the top limit users by message count, count descending
// with user id ascending as the tie-break. Only users with at least one
// message are eligible. The stored rank rides along as PreviousRank.
func (r *Repository) TopRanked(ctx context.Context, limit int) ([]domain.RankedUser, error) {
	const query = `
        SELECT user_id, username, message_count, COALESCE(current_rank, 0)
        FROM users
        WHERE message_count > 0
        ORDER BY message_count DESC, user_id ASC
        LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.RankedUser, 0, limit)
	for rows.Next() {
		var u domain.RankedUser
		if err := rows.Scan(&u.UserID, &u.Username, &u.MessageCount, &u.PreviousRank); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// PersistRanks writes the supplied rank assignments in one transaction.
// Either every rank is stored or none is.
func (r *Repository) PersistRanks(ctx context.Context, updates []domain.RankUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `UPDATE users SET current_rank = $1, last_updated = now() WHERE user_id = $2`
	for _, u := range updates {
		if _, err = tx.Exec(ctx, stmt, u.Rank, u.UserID); err != nil {
			return err
		}
	}

	err = tx.Commit(ctx)
	return err
}

// ClearRanksOutside resets the stored rank for every user not currently in
// the top limit. Safe to retry; clearing an absent rank is a no-op.
func (r *Repository) ClearRanksOutside(ctx context.Context, limit int) error {
	const stmt = `
        UPDATE users SET current_rank = NULL
        WHERE current_rank IS NOT NULL
          AND user_id NOT IN (
            SELECT user_id FROM users
            WHERE message_count > 0
            ORDER BY message_count DESC, user_id ASC
            LIMIT $1
        )`

	_, err := r.pool.Exec(ctx, stmt, limit)
	return err
}
