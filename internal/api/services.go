package api

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/digkill/TivoaArt/internal/auth"
	"github.com/digkill/TivoaArt/internal/models"
	"github.com/digkill/TivoaArt/internal/repository"
	"github.com/digkill/TivoaArt/internal/runware"
	"github.com/digkill/TivoaArt/internal/service"
)

type AuthService interface {
	RequestSignupOTP(ctx context.Context, email string) error
	VerifySignupOTP(ctx context.Context, email, code string) error
	CompleteSignup(ctx context.Context, email, name, password string) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	RequestPasswordResetOTP(ctx context.Context, email string) error
	VerifyPasswordResetOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (*service.Session, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID int64) (*models.User, error)
	VerifyAccess(ctx context.Context, userID int64) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, current, next string) error
	DeleteAccount(ctx context.Context, userID int64, password string) error
	GoogleEnabled() bool
	GoogleAuthURL(state string) string
	GoogleSignIn(ctx context.Context, code string) (*service.Session, error)
}

type PaymentService interface {
	Preview(amountUSD decimal.Decimal) (service.Preview, error)
	Initiate(ctx context.Context, userID int64, amountUSD decimal.Decimal) (*service.InitiateResult, error)
	Execute(ctx context.Context, userID int64, paymentID string) (*service.ExecuteResult, error)
}

type SettingsService interface {
	All(ctx context.Context) (map[string]any, error)
	CreditRates(ctx context.Context) (models.CreditRates, error)
	Save(ctx context.Context, settings models.AppSettings) error
}

type GenerationService interface {
	Generate(ctx context.Context, userID int64, req service.GenerateRequest) ([]runware.Image, error)
	Mine(ctx context.Context, userID int64) ([]models.UserImage, error)
	SetFavorite(ctx context.Context, userID, imageID int64, favorite bool) error
	DeleteImage(ctx context.Context, userID, imageID int64) error
}

type ContentService interface {
	About(ctx context.Context) (*service.AboutPage, error)
	SaveAbout(ctx context.Context, page service.AboutPage) error
	Sections(ctx context.Context, table repository.SectionTable) ([]models.Section, error)
	SaveSections(ctx context.Context, table repository.SectionTable, sections []models.Section) error
}

type ContactService interface {
	Submit(ctx context.Context, name, email, message string) error
	List(ctx context.Context, page models.Page, sort string) (*service.ContactPage, error)
}

type UserService interface {
	List(ctx context.Context, filter repository.UserFilter) (*service.UserList, error)
	Details(ctx context.Context, userID int64) (*service.UserDetails, error)
	Transactions(ctx context.Context, userID int64, page models.Page) (*service.TransactionPage, error)
	SetBlocked(ctx context.Context, userID int64, blocked bool) error
}

// TokenParser verifies access tokens.
type TokenParser interface {
	ParseAccess(token string) (*auth.Claims, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Services struct {
	Auth       AuthService
	Payments   PaymentService
	Settings   SettingsService
	Generation GenerationService
	Content    ContentService
	Contact    ContactService
	Users      UserService
}
