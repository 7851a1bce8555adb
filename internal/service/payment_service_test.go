package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/TivoaArt/internal/bkash"
	"github.com/digkill/TivoaArt/internal/models"
)

const testUser = int64(42)

func newPaymentFixture() (*PaymentService, *fakeLedger, *fakeGateway) {
	ledger := newFakeLedger()
	ledger.settings[models.SettingUSDToBDT] = "110"
	ledger.settings[models.SettingCreditsPerDollar] = "100"
	gw := &fakeGateway{
		createResp:  &bkash.CreatePaymentResponse{PaymentID: "TR0011", BkashURL: "https://pay.example/TR0011"},
		executeResp: &bkash.ExecutePaymentResponse{TransactionStatus: "Completed", TrxID: "TRX9"},
	}
	svc := NewPaymentService(ledger, gw, "http://localhost:3000/cb", nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, ledger, gw
}

func seedPending(t *testing.T, svc *PaymentService) {
	t.Helper()
	_, err := svc.Initiate(context.Background(), testUser, decimal.NewFromInt(5))
	require.NoError(t, err)
}

func TestPreview(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	tests := []struct {
		in      string
		amount  string
		credits int64
	}{
		{"5", "5", 500},
		{"0", "1", 100},
		{"-3", "1", 100},
		{"0.5", "1", 100},
		{"2.345", "2.345", 234},
	}
	for _, tt := range tests {
		p, err := svc.Preview(decimal.RequireFromString(tt.in))
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.amount, p.AmountUSD.String(), tt.in)
		assert.Equal(t, tt.credits, p.Credits, tt.in)
	}
}

func TestPreviewRejectsHugeAmounts(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	for _, in := range []string{"1000000.01", "100000000000000000", "1e40"} {
		_, err := svc.Preview(decimal.RequireFromString(in))
		assert.ErrorIs(t, err, ErrInvalidInput, in)
	}

	p, err := svc.Preview(decimal.NewFromInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_000), p.Credits)
}

func TestPreviewIgnoresSettings(t *testing.T) {
	svc, ledger, _ := newPaymentFixture()
	ledger.settings[models.SettingCreditsPerDollar] = "250"
	p, err := svc.Preview(decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, int64(500), p.Credits)
}

func TestInitiateRecordsPendingPayment(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()

	res, err := svc.Initiate(context.Background(), testUser, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Equal(t, "TR0011", res.PaymentID)
	assert.Equal(t, "https://pay.example/TR0011", res.BkashURL)

	p := ledger.payment("TR0011")
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Equal(t, "550.00", p.AmountBDT.StringFixed(2))
	assert.Equal(t, int64(500), p.Credits)
	assert.Equal(t, "granted-token", p.Token)
	assert.Equal(t, testUser, p.UserID)

	assert.Equal(t, "550.00", gw.lastCreate.Amount)
	assert.Equal(t, "0011", gw.lastCreate.Mode)
	assert.Equal(t, "sale", gw.lastCreate.Intent)
	assert.Equal(t, "BDT", gw.lastCreate.Currency)
	assert.Equal(t, "http://localhost:3000/cb", gw.lastCreate.CallbackURL)
	assert.Equal(t, "INV-1700000000000-42", gw.lastCreate.MerchantInvoiceNumber)
	assert.Regexp(t, regexp.MustCompile(`^INV-\d+-42$`), gw.lastCreate.MerchantInvoiceNumber)
}

func TestInitiateFallsBackToDefaultRates(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()
	ledger.settings = map[string]string{models.SettingUSDToBDT: "-4", models.SettingCreditsPerDollar: "abc"}

	_, err := svc.Initiate(context.Background(), testUser, decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	p := ledger.payment("TR0011")
	assert.Equal(t, "275.00", gw.lastCreate.Amount)
	assert.Equal(t, int64(250), p.Credits)
}

func TestInitiateClampsAmount(t *testing.T) {
	svc, ledger, _ := newPaymentFixture()

	_, err := svc.Initiate(context.Background(), testUser, decimal.Zero)
	require.NoError(t, err)
	p := ledger.payment("TR0011")
	assert.Equal(t, "110.00", p.AmountBDT.StringFixed(2))
	assert.Equal(t, int64(100), p.Credits)
}

func TestInitiateRejectsOversizedAmounts(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		settings map[string]string
	}{
		{name: "above maximum", amount: "100000000000000000"},
		{name: "bdt column overflow", amount: "1000000", settings: map[string]string{models.SettingUSDToBDT: "100000"}},
		{name: "credits overflow", amount: "1000000", settings: map[string]string{models.SettingCreditsPerDollar: "1e20"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ledger, gw := newPaymentFixture()
			for k, v := range tt.settings {
				ledger.settings[k] = v
			}

			_, err := svc.Initiate(context.Background(), testUser, decimal.RequireFromString(tt.amount))
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, ledger.payments)
			assert.Empty(t, gw.lastCreate.Amount, "gateway must not be called")
		})
	}
}

func TestInitiateWithoutPaymentIDPersistsNothing(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()
	gw.createResp = &bkash.CreatePaymentResponse{StatusCode: "2023"}

	_, err := svc.Initiate(context.Background(), testUser, decimal.NewFromInt(5))
	require.ErrorIs(t, err, ErrInsufficientUpstream)
	assert.Empty(t, ledger.payments)
	assert.Zero(t, ledger.commits)
}

func TestInitiateGatewayFailureIsInternal(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()
	gw.grantErr = errors.New("dial tcp: timeout")

	_, err := svc.Initiate(context.Background(), testUser, decimal.NewFromInt(5))
	require.Error(t, err)
	var svcErr *Error
	assert.False(t, errors.As(err, &svcErr), "transport failures are not client errors")
	assert.Empty(t, ledger.payments)
}

func TestInitiateRequiresUser(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	_, err := svc.Initiate(context.Background(), 0, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestExecuteCompletedCreditsOnce(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()
	seedPending(t, svc)
	ledger.credits[testUser] = 20

	res, err := svc.Execute(context.Background(), testUser, "TR0011")
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.CreditsAdded)
	assert.Equal(t, "TRX9", res.TrxID)
	assert.Equal(t, int64(520), ledger.balance(testUser))

	p := ledger.payment("TR0011")
	assert.Equal(t, models.PaymentSuccess, p.Status)
	assert.Equal(t, "TRX9", p.TrxID)
	assert.Equal(t, "granted-token", gw.executeToken)

	_, err = svc.Execute(context.Background(), testUser, "TR0011")
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Already SUCCESS", svcErr.Message)
	assert.Equal(t, int64(520), ledger.balance(testUser))
	assert.Equal(t, 1, gw.executes)
}

func TestExecuteRejectedMarksFailed(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()
	seedPending(t, svc)
	gw.executeResp = &bkash.ExecutePaymentResponse{
		TransactionStatus: "Initiated",
		StatusCode:        "2056",
		Raw:               json.RawMessage(`{"statusCode":"2056","statusMessage":"Invalid Payment State"}`),
	}

	_, err := svc.Execute(context.Background(), testUser, "TR0011")
	require.ErrorIs(t, err, ErrGatewayRejected)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "Payment not completed", svcErr.Message)
	assert.JSONEq(t, `{"statusCode":"2056","statusMessage":"Invalid Payment State"}`, string(svcErr.Details.(json.RawMessage)))

	assert.Equal(t, models.PaymentFailed, ledger.payment("TR0011").Status)
	assert.Zero(t, ledger.balance(testUser))

	_, err = svc.Execute(context.Background(), testUser, "TR0011")
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "Already FAILED", svcErr.Message)
}

func TestExecuteUnknownOrForeignPayment(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()
	seedPending(t, svc)

	_, err := svc.Execute(context.Background(), testUser, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Execute(context.Background(), testUser+1, "TR0011")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, models.PaymentPending, ledger.payment("TR0011").Status)
	assert.Zero(t, gw.executes)
}

func TestExecuteMissingPaymentID(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	_, err := svc.Execute(context.Background(), testUser, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecuteGrantsTokenWhenNoneStored(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()
	seedPending(t, svc)
	ledger.payments["TR0011"].Token = ""
	grantsBefore := gw.grants

	_, err := svc.Execute(context.Background(), testUser, "TR0011")
	require.NoError(t, err)
	assert.Equal(t, grantsBefore+1, gw.grants)
}

func TestExecuteGatewayErrorRollsBack(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()
	seedPending(t, svc)
	gw.executeErr = errors.New("connection reset")

	_, err := svc.Execute(context.Background(), testUser, "TR0011")
	require.Error(t, err)
	assert.Equal(t, models.PaymentPending, ledger.payment("TR0011").Status)
	assert.Zero(t, ledger.balance(testUser))
}

func TestConcurrentExecuteCreditsAtMostOnce(t *testing.T) {
	svc, ledger, gw := newPaymentFixture()
	seedPending(t, svc)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Execute(context.Background(), testUser, "TR0011")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, int64(500), ledger.balance(testUser))
	assert.Equal(t, 1, gw.executes)
}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		`5`:      "5",
		`"7.25"`: "7.25",
		`" 3 "`:  "3",
		`null`:   "0",
		`"abc"`:  "0",
		`true`:   "0",
		``:       "0",
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseAmount(json.RawMessage(raw)).String(), raw)
	}
}
