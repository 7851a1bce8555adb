package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/TivoaArt/internal/models"
)

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, payment_id, amount_bdt, credits, COALESCE(token, ''), status, COALESCE(trx_id, ''), created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.CreditPayment, error) {
	var p models.CreditPayment
	var status string
	if err := row.Scan(&p.ID, &p.UserID, &p.PaymentID, &p.AmountBDT, &p.Credits, &p.Token, &status, &p.TrxID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.PaymentStatus(status)
	return &p, nil
}

func (r *PaymentRepository) InsertPending(ctx context.Context, payment *models.CreditPayment) error {
	const query = `
INSERT INTO credit_payments (user_id, payment_id, amount_bdt, credits, token, status)
VALUES (?, ?, ?, ?, ?, ?)`
	payment.Status = models.PaymentPending
	res, err := r.db.ExecContext(ctx, query, payment.UserID, payment.PaymentID, payment.AmountBDT.StringFixed(2), payment.Credits, payment.Token, string(payment.Status))
	if err != nil {
		return fmt.Errorf("insert credit payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	payment.ID = id
	return nil
}

// LockPayment returns nil when the payment does not exist or belongs to someone else.
func (r *PaymentRepository) LockPayment(ctx context.Context, paymentID string, userID int64) (*models.CreditPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM credit_payments WHERE payment_id = ? AND user_id = ? FOR UPDATE`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, paymentID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock credit payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) MarkSucceeded(ctx context.Context, id int64, trxID string) error {
	const query = `
UPDATE credit_payments SET status = 'SUCCESS', trx_id = ?, updated_at = NOW()
WHERE id = ? AND status = 'PENDING'`
	return r.finalize(ctx, query, trxID, id)
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, id int64) error {
	const query = `
UPDATE credit_payments SET status = 'FAILED', updated_at = NOW()
WHERE id = ? AND status = 'PENDING'`
	return r.finalize(ctx, query, id)
}

func (r *PaymentRepository) finalize(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update credit payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("payment rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, page models.Page) ([]models.CreditPayment, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credit_payments WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count credit payments: %w", err)
	}

	query := `SELECT ` + paymentColumns + ` FROM credit_payments WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list credit payments: %w", err)
	}
	defer rows.Close()

	var payments []models.CreditPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan credit payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, total, rows.Err()
}
