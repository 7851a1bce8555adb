package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/TivoaArt/internal/models"
)

// ErrStaleStatus is returned when a payment row left PENDING before the update landed.
var ErrStaleStatus = errors.New("payment status already finalized")

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LedgerTx is the set of queries the payment flow runs inside one transaction.
type LedgerTx interface {
	Settings(ctx context.Context, keys ...string) (map[string]string, error)
	InsertPending(ctx context.Context, payment *models.CreditPayment) error
	LockPayment(ctx context.Context, paymentID string, userID int64) (*models.CreditPayment, error)
	MarkSucceeded(ctx context.Context, id int64, trxID string) error
	MarkFailed(ctx context.Context, id int64) error
	AddCredits(ctx context.Context, userID int64, delta int64) error
}

// GenerationTx is the set of queries an image generation runs inside one transaction.
type GenerationTx interface {
	LockCredits(ctx context.Context, userID int64) (int64, bool, error)
	InsertImages(ctx context.Context, userID int64, urls []string) error
	DebitCredits(ctx context.Context, userID int64, amount int64) error
}

// Store opens transactions that span several repositories.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithLedgerTx(ctx context.Context, fn func(LedgerTx) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&ledgerTx{
			SettingsRepository: NewSettingsRepository(tx),
			PaymentRepository:  NewPaymentRepository(tx),
			UserRepository:     NewUserRepository(tx),
		})
	})
}

func (s *Store) WithGenerationTx(ctx context.Context, fn func(GenerationTx) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&generationTx{
			UserRepository:  NewUserRepository(tx),
			ImageRepository: NewImageRepository(tx),
		})
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type ledgerTx struct {
	*SettingsRepository
	*PaymentRepository
	*UserRepository
}

func (t *ledgerTx) Settings(ctx context.Context, keys ...string) (map[string]string, error) {
	return t.SettingsRepository.Get(ctx, keys...)
}

type generationTx struct {
	*UserRepository
	*ImageRepository
}

var (
	_ LedgerTx     = (*ledgerTx)(nil)
	_ GenerationTx = (*generationTx)(nil)
)
