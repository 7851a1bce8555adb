package repository

import (
	"context"
	"fmt"
)

type RefreshTokenRepository struct {
	db DBTX
}

func NewRefreshTokenRepository(db DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Insert(ctx context.Context, userID int64, token string) error {
	const query = `INSERT INTO refresh_tokens (user_id, token) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// Delete removes the token and reports whether this call was the one that removed it.
func (r *RefreshTokenRepository) Delete(ctx context.Context, userID int64, token string) (bool, error) {
	const query = `DELETE FROM refresh_tokens WHERE user_id = ? AND token = ?`
	res, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	return n == 1, nil
}

func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	return nil
}
