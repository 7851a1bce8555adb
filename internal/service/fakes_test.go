package service

import (
	"context"
	"errors"
	"sync"

	"github.com/digkill/TivoaArt/internal/bkash"
	"github.com/digkill/TivoaArt/internal/models"
	"github.com/digkill/TivoaArt/internal/repository"
)

// fakeLedger holds one mutex for the whole transaction, standing in for the row lock.
type fakeLedger struct {
	mu       sync.Mutex
	settings map[string]string
	credits  map[int64]int64
	payments map[string]*models.CreditPayment
	nextID   int64
	commits  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		settings: map[string]string{},
		credits:  map[int64]int64{},
		payments: map[string]*models.CreditPayment{},
	}
}

func (f *fakeLedger) WithLedgerTx(ctx context.Context, fn func(repository.LedgerTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshotCredits := make(map[int64]int64, len(f.credits))
	for k, v := range f.credits {
		snapshotCredits[k] = v
	}
	snapshotPayments := make(map[string]models.CreditPayment, len(f.payments))
	for k, v := range f.payments {
		snapshotPayments[k] = *v
	}

	if err := fn(&fakeLedgerTx{f}); err != nil {
		f.credits = snapshotCredits
		f.payments = map[string]*models.CreditPayment{}
		for k, v := range snapshotPayments {
			p := v
			f.payments[k] = &p
		}
		return err
	}
	f.commits++
	return nil
}

func (f *fakeLedger) payment(id string) models.CreditPayment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.payments[id]
}

func (f *fakeLedger) balance(userID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credits[userID]
}

type fakeLedgerTx struct{ f *fakeLedger }

func (t *fakeLedgerTx) Settings(ctx context.Context, keys ...string) (map[string]string, error) {
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := t.f.settings[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (t *fakeLedgerTx) InsertPending(ctx context.Context, p *models.CreditPayment) error {
	if _, dup := t.f.payments[p.PaymentID]; dup {
		return errors.New("duplicate payment_id")
	}
	t.f.nextID++
	p.ID = t.f.nextID
	p.Status = models.PaymentPending
	cp := *p
	t.f.payments[p.PaymentID] = &cp
	return nil
}

func (t *fakeLedgerTx) LockPayment(ctx context.Context, paymentID string, userID int64) (*models.CreditPayment, error) {
	p, ok := t.f.payments[paymentID]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (t *fakeLedgerTx) byID(id int64) *models.CreditPayment {
	for _, p := range t.f.payments {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *fakeLedgerTx) MarkSucceeded(ctx context.Context, id int64, trxID string) error {
	p := t.byID(id)
	if p == nil || p.Status != models.PaymentPending {
		return repository.ErrStaleStatus
	}
	p.Status = models.PaymentSuccess
	p.TrxID = trxID
	return nil
}

func (t *fakeLedgerTx) MarkFailed(ctx context.Context, id int64) error {
	p := t.byID(id)
	if p == nil || p.Status != models.PaymentPending {
		return repository.ErrStaleStatus
	}
	p.Status = models.PaymentFailed
	return nil
}

func (t *fakeLedgerTx) AddCredits(ctx context.Context, userID int64, delta int64) error {
	t.f.credits[userID] += delta
	return nil
}

type fakeGateway struct {
	mu           sync.Mutex
	grantErr     error
	createResp   *bkash.CreatePaymentResponse
	createErr    error
	executeResp  *bkash.ExecutePaymentResponse
	executeErr   error
	grants       int
	executes     int
	lastCreate   bkash.CreatePaymentRequest
	executeToken string
}

func (g *fakeGateway) GrantToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.grants++
	if g.grantErr != nil {
		return "", g.grantErr
	}
	return "granted-token", nil
}

func (g *fakeGateway) CreatePayment(ctx context.Context, token string, req bkash.CreatePaymentRequest) (*bkash.CreatePaymentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastCreate = req
	return g.createResp, g.createErr
}

func (g *fakeGateway) ExecutePayment(ctx context.Context, token, paymentID string) (*bkash.ExecutePaymentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.executes++
	g.executeToken = token
	return g.executeResp, g.executeErr
}
