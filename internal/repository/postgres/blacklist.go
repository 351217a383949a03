package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/accountd/internal/models"
)

type TokenBlacklistRepo struct {
	DB DBTX
}

const addToken = `-- name: BlacklistToken
INSERT INTO token_blacklist (token_id, blacklisted_at, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (token_id) DO NOTHING
`

// Add token id to the blacklist
// Adding the same id twice is a no-op, not an error
func (r *TokenBlacklistRepo) Add(ctx context.Context, token models.BlacklistedToken) error {
	_, err := r.DB.Exec(ctx, addToken, token.TokenID, token.BlacklistedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const containsToken = `-- name: TokenBlacklisted
SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token_id = $1)
`

func (r *TokenBlacklistRepo) Contains(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	rows, _ := r.DB.Query(ctx, containsToken, tokenID)
	exists, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

const deleteExpired = `-- name: DeleteExpiredTokens
DELETE FROM token_blacklist
WHERE expires_at < $1
`

// Purge entries whose tokens expired before the given moment
// Correctness doesn't depend on it: expired tokens fail validation anyway
func (r *TokenBlacklistRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteExpired, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}
