package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/bkash"
	"github.com/digkill/TivoaArt/internal/models"
	"github.com/digkill/TivoaArt/internal/repository"
)

var (
	minAmountUSD            = decimal.NewFromInt(1)
	maxAmountUSD            = decimal.NewFromInt(1_000_000)
	maxAmountBDT            = decimal.RequireFromString("9999999999.99")
	maxCredits              = decimal.NewFromInt(math.MaxInt64)
	defaultUSDToBDT         = decimal.NewFromInt(110)
	defaultCreditsPerDollar = decimal.NewFromInt(100)
	previewCreditsPerDollar = decimal.NewFromInt(100)
)

// PaymentGateway is the subset of the bKash checkout API used for top-ups.
type PaymentGateway interface {
	GrantToken(ctx context.Context) (string, error)
	CreatePayment(ctx context.Context, token string, req bkash.CreatePaymentRequest) (*bkash.CreatePaymentResponse, error)
	ExecutePayment(ctx context.Context, token, paymentID string) (*bkash.ExecutePaymentResponse, error)
}

type LedgerStore interface {
	WithLedgerTx(ctx context.Context, fn func(repository.LedgerTx) error) error
}

type PaymentService struct {
	store       LedgerStore
	gateway     PaymentGateway
	callbackURL string
	log         *zap.Logger
	now         func() time.Time
}

func NewPaymentService(store LedgerStore, gateway PaymentGateway, callbackURL string, log *zap.Logger) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentService{
		store:       store,
		gateway:     gateway,
		callbackURL: callbackURL,
		log:         log,
		now:         time.Now,
	}
}

type Preview struct {
	AmountUSD decimal.Decimal
	Credits   int64
}

type InitiateResult struct {
	PaymentID string `json:"paymentID"`
	BkashURL  string `json:"bkashURL"`
}

type ExecuteResult struct {
	CreditsAdded int64  `json:"creditsAdded"`
	TrxID        string `json:"trxID"`
}

// NormalizeAmountUSD applies the minimum top-up and rejects amounts above the maximum.
// Zero covers absent or unparsable input.
func NormalizeAmountUSD(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.GreaterThan(maxAmountUSD) {
		return decimal.Zero, invalid("Amount must not exceed " + maxAmountUSD.String() + " USD")
	}
	return decimal.Max(amount, minAmountUSD), nil
}

// Preview quotes credits at a flat 100 per dollar, regardless of stored settings.
func (s *PaymentService) Preview(amountUSD decimal.Decimal) (Preview, error) {
	amount, err := NormalizeAmountUSD(amountUSD)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		AmountUSD: amount,
		Credits:   amount.Mul(previewCreditsPerDollar).IntPart(),
	}, nil
}

// Initiate prices the top-up, opens a bKash checkout and records it as PENDING.
func (s *PaymentService) Initiate(ctx context.Context, userID int64, amountUSD decimal.Decimal) (*InitiateResult, error) {
	if userID <= 0 {
		return nil, newError(ErrUnauthenticated, "User not authenticated")
	}
	amount, err := NormalizeAmountUSD(amountUSD)
	if err != nil {
		return nil, err
	}

	var result *InitiateResult
	err = s.store.WithLedgerTx(ctx, func(tx repository.LedgerTx) error {
		values, err := tx.Settings(ctx, models.SettingUSDToBDT, models.SettingCreditsPerDollar)
		if err != nil {
			return err
		}
		rates := creditRatesFrom(values)
		amountBDT := amount.Mul(rates.USDToBDT).Round(2)
		creditsExact := amount.Mul(rates.CreditsPerDollar)
		// amount_bdt is DECIMAL(12,2) and credits is a signed 64-bit column.
		if amountBDT.GreaterThan(maxAmountBDT) || creditsExact.GreaterThan(maxCredits) {
			return invalid("Amount is too large")
		}
		credits := creditsExact.IntPart()

		token, err := s.gateway.GrantToken(ctx)
		if err != nil {
			return err
		}
		created, err := s.gateway.CreatePayment(ctx, token, bkash.CreatePaymentRequest{
			Mode:                  "0011",
			PayerReference:        " ",
			CallbackURL:           s.callbackURL,
			Amount:                amountBDT.StringFixed(2),
			Currency:              "BDT",
			Intent:                "sale",
			MerchantInvoiceNumber: fmt.Sprintf("INV-%d-%d", s.now().UnixMilli(), userID),
		})
		if err != nil {
			return err
		}
		if created == nil || created.PaymentID == "" {
			return newError(ErrInsufficientUpstream, "Failed to create payment")
		}

		payment := &models.CreditPayment{
			UserID:    userID,
			PaymentID: created.PaymentID,
			AmountBDT: amountBDT,
			Credits:   credits,
			Token:     token,
		}
		if err := tx.InsertPending(ctx, payment); err != nil {
			return err
		}
		result = &InitiateResult{PaymentID: created.PaymentID, BkashURL: created.BkashURL}
		return nil
	})
	if err != nil {
		s.log.Error("initiate payment failed", zap.Int64("user_id", userID), zap.String("amount_usd", amount.String()), zap.Error(err))
		return nil, err
	}

	s.log.Info("payment initiated", zap.Int64("user_id", userID), zap.String("payment_id", result.PaymentID), zap.String("amount_usd", amount.String()))
	return result, nil
}

// Execute captures a PENDING payment and credits the user at most once.
// A gateway rejection is committed as FAILED before the error is returned.
func (s *PaymentService) Execute(ctx context.Context, userID int64, paymentID string) (*ExecuteResult, error) {
	if userID <= 0 {
		return nil, newError(ErrUnauthenticated, "User not authenticated")
	}
	if paymentID == "" {
		return nil, invalid("Missing paymentID")
	}

	var (
		result   *ExecuteResult
		rejected *bkash.ExecutePaymentResponse
	)
	err := s.store.WithLedgerTx(ctx, func(tx repository.LedgerTx) error {
		payment, err := tx.LockPayment(ctx, paymentID, userID)
		if err != nil {
			return err
		}
		if payment == nil {
			return newError(ErrNotFound, "Payment not found")
		}
		if payment.Status != models.PaymentPending {
			return newError(ErrConflict, "Already "+string(payment.Status))
		}

		token := payment.Token
		if token == "" {
			if token, err = s.gateway.GrantToken(ctx); err != nil {
				return err
			}
		}

		executed, err := s.gateway.ExecutePayment(ctx, token, paymentID)
		if err != nil {
			return err
		}

		if !executed.Completed() {
			if err := tx.MarkFailed(ctx, payment.ID); err != nil {
				return err
			}
			rejected = executed
			return nil
		}

		if err := tx.MarkSucceeded(ctx, payment.ID, executed.TrxID); err != nil {
			return err
		}
		if err := tx.AddCredits(ctx, userID, payment.Credits); err != nil {
			return err
		}
		result = &ExecuteResult{CreditsAdded: payment.Credits, TrxID: executed.TrxID}
		return nil
	})

	switch {
	case err != nil:
		var svcErr *Error
		if errors.As(err, &svcErr) {
			s.log.Warn("execute payment refused", zap.Int64("user_id", userID), zap.String("payment_id", paymentID), zap.String("reason", svcErr.Message))
		} else {
			s.log.Error("execute payment failed", zap.Int64("user_id", userID), zap.String("payment_id", paymentID), zap.Error(err))
		}
		return nil, err
	case rejected != nil:
		s.log.Warn("payment rejected by gateway", zap.Int64("user_id", userID), zap.String("payment_id", paymentID), zap.String("transaction_status", rejected.TransactionStatus))
		return nil, newError(ErrGatewayRejected, "Payment not completed").withDetails("execRes", gatewayBody(rejected))
	}

	s.log.Info("payment executed", zap.Int64("user_id", userID), zap.String("payment_id", paymentID), zap.Int64("credits", result.CreditsAdded), zap.String("trx_id", result.TrxID))
	return result, nil
}

func gatewayBody(resp *bkash.ExecutePaymentResponse) any {
	if len(resp.Raw) > 0 && json.Valid(resp.Raw) {
		return resp.Raw
	}
	return resp
}

// creditRatesFrom reads the pricing settings, substituting defaults for absent or non-positive values.
func creditRatesFrom(values map[string]string) models.CreditRates {
	return models.CreditRates{
		USDToBDT:         positiveOr(values[models.SettingUSDToBDT], defaultUSDToBDT),
		CreditsPerDollar: positiveOr(values[models.SettingCreditsPerDollar], defaultCreditsPerDollar),
	}
}

func positiveOr(raw string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return fallback
	}
	return d
}

// ParseAmount accepts a JSON number or numeric string; anything else yields zero.
func ParseAmount(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		text = string(raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero
	}
	return d
}
