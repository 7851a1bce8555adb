package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/TivoaArt/internal/models"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *Store) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return mock, func() *Store { return NewStore(db) }
}

func paymentRow(status string) *sqlmock.Rows {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "user_id", "payment_id", "amount_bdt", "credits", "token", "status", "trx_id", "created_at", "updated_at"}).
		AddRow(7, 42, "TR0001", "550.00", 500, "tok", status, "", now, now)
}

func TestLedgerTxExecuteCommits(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM credit_payments WHERE payment_id = ? AND user_id = ? FOR UPDATE")).
		WithArgs("TR0001", int64(42)).
		WillReturnRows(paymentRow("PENDING"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE credit_payments SET status = 'SUCCESS'")).
		WithArgs("TRX9", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET credits = credits + ?")).
		WithArgs(int64(500), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store().WithLedgerTx(ctx, func(tx LedgerTx) error {
		p, err := tx.LockPayment(ctx, "TR0001", 42)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, models.PaymentPending, p.Status)
		assert.True(t, decimal.RequireFromString("550").Equal(p.AmountBDT))
		assert.Equal(t, "tok", p.Token)

		require.NoError(t, tx.MarkSucceeded(ctx, p.ID, "TRX9"))
		return tx.AddCredits(ctx, p.UserID, p.Credits)
	})
	require.NoError(t, err)
}

func TestLedgerTxRollsBackOnError(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("missing", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := store().WithLedgerTx(ctx, func(tx LedgerTx) error {
		p, err := tx.LockPayment(ctx, "missing", 1)
		require.NoError(t, err)
		assert.Nil(t, p)
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestMarkFailedRejectsFinalizedRow(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE credit_payments SET status = 'FAILED'")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store().WithLedgerTx(ctx, func(tx LedgerTx) error {
		return tx.MarkFailed(ctx, 7)
	})
	assert.ErrorIs(t, err, ErrStaleStatus)
}

func TestInsertPendingFormatsAmount(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `key`, `value` FROM app_settings WHERE `key` IN (?, ?)")).
		WithArgs(models.SettingUSDToBDT, models.SettingCreditsPerDollar).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow(models.SettingUSDToBDT, "110"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO credit_payments")).
		WithArgs(int64(42), "TR0001", "550.00", int64(500), "tok", "PENDING").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	payment := &models.CreditPayment{UserID: 42, PaymentID: "TR0001", AmountBDT: decimal.NewFromInt(550), Credits: 500, Token: "tok"}
	err := store().WithLedgerTx(ctx, func(tx LedgerTx) error {
		values, err := tx.Settings(ctx, models.SettingUSDToBDT, models.SettingCreditsPerDollar)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{models.SettingUSDToBDT: "110"}, values)
		return tx.InsertPending(ctx, payment)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), payment.ID)
	assert.Equal(t, models.PaymentPending, payment.Status)
}

func TestGenerationTxDebit(t *testing.T) {
	mock, store := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT credits FROM users WHERE id = ? FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_images (user_id, image_url) VALUES (?, ?), (?, ?)")).
		WithArgs(int64(3), "https://a", int64(3), "https://b").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET credits = credits - ?")).
		WithArgs(int64(2), int64(3), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store().WithGenerationTx(ctx, func(tx GenerationTx) error {
		credits, found, err := tx.LockCredits(ctx, 3)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int64(10), credits)
		require.NoError(t, tx.InsertImages(ctx, 3, []string{"https://a", "https://b"}))
		return tx.DebitCredits(ctx, 3, 2)
	})
	require.NoError(t, err)
}

func TestDebitCreditsInsufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET credits = credits -").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewUserRepository(db).DebitCredits(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestUserListBuildsFilteredQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE (email LIKE ? OR name LIKE ?)")).
		WithArgs("%ann%", "%ann%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY credits ASC LIMIT ? OFFSET ?")).
		WithArgs("%ann%", "%ann%", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "google_id", "role", "credits", "is_blocked", "is_deleted", "created_at", "updated_at"}).
			AddRow(1, "ann@example.com", "Ann", "", "", "admin", 5, false, false, now, now))

	users, total, err := NewUserRepository(db).List(context.Background(), UserFilter{
		Search:    " ann ",
		SortBy:    "credits",
		SortOrder: "asc",
		Page:      models.Page{Page: 2, PerPage: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFilterOrderByIgnoresUnknownColumn(t *testing.T) {
	assert.Equal(t, "id ASC", UserFilter{SortBy: "password_hash; DROP"}.orderBy())
	assert.Equal(t, "email DESC", UserFilter{SortBy: "email", SortOrder: "DESC"}.orderBy())
}

func TestFindByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ? LIMIT 1")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	u, err := NewUserRepository(db).FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSettingsReplaceAllSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("REPLACE INTO app_settings (`key`, `value`) VALUES (?, ?), (?, ?)")).
		WithArgs("creditsPerDollar", "100", "usdToBdt", "110").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = NewSettingsRepository(db).ReplaceAll(context.Background(), map[string]string{
		"usdToBdt":         "110",
		"creditsPerDollar": "100",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSectionsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM terms_sections")).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO terms_sections (section_order, heading, text)")).
		WithArgs(1, "Intro", "Hello").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO terms_sections (section_order, heading, text)")).
		WithArgs(2, "Use", "Be nice").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = NewContentRepository(db).ReplaceSections(context.Background(), TermsSections, []models.Section{
		{Heading: "Intro", Text: "Hello"},
		{Heading: "Use", Text: "Be nice"},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionsRejectsUnknownTable(t *testing.T) {
	_, err := (&ContentRepository{}).Sections(context.Background(), SectionTable("users"))
	assert.Error(t, err)
}

func TestOTPUpsertResetsState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	expires := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE otp_hash = VALUES(otp_hash), expires_at = VALUES(expires_at), verified = 0, attempts = 0")).
		WithArgs("a@example.com", "hash", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewOTPRepository(db).Upsert(context.Background(), "a@example.com", "hash", expires))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImageSetFavoriteScopedToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_images SET is_favorite = ? WHERE id = ? AND user_id = ? AND is_deleted = 0")).
		WithArgs(true, int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewImageRepository(db).SetFavorite(context.Background(), 9, 5, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshTokenDeleteReportsConsumption(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	const query = "DELETE FROM refresh_tokens WHERE user_id = ? AND token = ?"
	mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(int64(7), "tok").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(int64(7), "tok").WillReturnResult(sqlmock.NewResult(0, 0))

	consumed, err := repo.Delete(ctx, 7, "tok")
	require.NoError(t, err)
	assert.True(t, consumed)

	consumed, err = repo.Delete(ctx, 7, "tok")
	require.NoError(t, err)
	assert.False(t, consumed, "second delete of the same token finds nothing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenDeleteAllForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE user_id = ?")).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, NewRefreshTokenRepository(db).DeleteAllForUser(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
