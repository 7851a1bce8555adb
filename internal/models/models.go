package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Terminal reports whether the status can no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"google_id,omitempty"`
	Role         Role      `json:"role"`
	Credits      int64     `json:"credits"`
	IsBlocked    bool      `json:"is_blocked"`
	IsDeleted    bool      `json:"is_deleted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// CreditPayment is one bKash checkout attempt and its outcome.
type CreditPayment struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	PaymentID string          `json:"payment_id"`
	AmountBDT decimal.Decimal `json:"amount_bdt"`
	Credits   int64           `json:"credits"`
	Token     string          `json:"-"`
	Status    PaymentStatus   `json:"status"`
	TrxID     string          `json:"trx_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type OTP struct {
	Email     string
	Hash      string
	ExpiresAt time.Time
	Verified  bool
	Attempts  int
}

type UserImage struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id,omitempty"`
	ImageURL   string    `json:"imageURL"`
	IsFavorite bool      `json:"is_favorite"`
	IsDeleted  bool      `json:"is_deleted"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Section struct {
	ID      int64  `json:"id,omitempty"`
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

type AboutSection struct {
	ID    int64  `json:"id,omitempty"`
	Order int    `json:"section_order"`
	Text  string `json:"text"`
}

type FAQ struct {
	ID       int64  `json:"id,omitempty"`
	Order    int    `json:"faq_order"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ContactRequest struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Setting names stored in app_settings.
const (
	SettingUSDToBDT            = "usdToBdt"
	SettingCreditsPerDollar    = "creditsPerDollar"
	SettingFreeSignupCredits   = "freeSignupCredits"
	SettingFreeCreationCredits = "freeCreationCredits"
)

// AppSettings is the full tuple replaced on every save.
type AppSettings struct {
	CreditsPerDollar    decimal.Decimal `json:"creditsPerDollar"`
	USDToBDT            decimal.Decimal `json:"usdToBdt"`
	FreeSignupCredits   decimal.Decimal `json:"freeSignupCredits"`
	FreeCreationCredits decimal.Decimal `json:"freeCreationCredits"`
}

// CreditRates are the settings consumed when pricing a top-up.
type CreditRates struct {
	USDToBDT         decimal.Decimal `json:"usdToBdt"`
	CreditsPerDollar decimal.Decimal `json:"creditsPerDollar"`
}

type Page struct {
	Page    int
	PerPage int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages returns the page count for total rows.
func (p Page) TotalPages(total int) int {
	if p.PerPage <= 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}
