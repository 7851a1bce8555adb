package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/digkill/TivoaArt/internal/models"
)

type OTPRepository struct {
	db DBTX
}

func NewOTPRepository(db DBTX) *OTPRepository {
	return &OTPRepository{db: db}
}

// Upsert replaces any outstanding code for the email and resets its state.
func (r *OTPRepository) Upsert(ctx context.Context, email, hash string, expiresAt time.Time) error {
	const query = `
INSERT INTO otps (email, otp_hash, expires_at, verified, attempts)
VALUES (?, ?, ?, 0, 0)
ON DUPLICATE KEY UPDATE otp_hash = VALUES(otp_hash), expires_at = VALUES(expires_at), verified = 0, attempts = 0`
	if _, err := r.db.ExecContext(ctx, query, email, hash, expiresAt.UTC()); err != nil {
		return fmt.Errorf("upsert otp: %w", err)
	}
	return nil
}

func (r *OTPRepository) Get(ctx context.Context, email string) (*models.OTP, error) {
	const query = `SELECT email, otp_hash, expires_at, verified, attempts FROM otps WHERE email = ?`
	var o models.OTP
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&o.Email, &o.Hash, &o.ExpiresAt, &o.Verified, &o.Attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan otp: %w", err)
	}
	return &o, nil
}

func (r *OTPRepository) IncrementAttempts(ctx context.Context, email string) error {
	const query = `UPDATE otps SET attempts = attempts + 1 WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("increment otp attempts: %w", err)
	}
	return nil
}

func (r *OTPRepository) MarkVerified(ctx context.Context, email string) error {
	const query = `UPDATE otps SET verified = 1 WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("mark otp verified: %w", err)
	}
	return nil
}

func (r *OTPRepository) Delete(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE email = ?`, email); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
