package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/auth"
	"github.com/digkill/TivoaArt/internal/mailer"
	"github.com/digkill/TivoaArt/internal/models"
)

type UserStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	LinkGoogleID(ctx context.Context, userID int64, googleID string) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	SoftDelete(ctx context.Context, userID int64) error
}

type OTPStore interface {
	Upsert(ctx context.Context, email, hash string, expiresAt time.Time) error
	Get(ctx context.Context, email string) (*models.OTP, error)
	IncrementAttempts(ctx context.Context, email string) error
	MarkVerified(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}

type RefreshTokenStore interface {
	Insert(ctx context.Context, userID int64, token string) error
	Delete(ctx context.Context, userID int64, token string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type OTPSender interface {
	SendOTP(ctx context.Context, to, code string, purpose mailer.Purpose) error
}

type GoogleAuthenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleProfile, error)
}

type SignupCreditSource interface {
	FreeSignupCredits(ctx context.Context) (int64, error)
}

type AuthConfig struct {
	OTPTTL         time.Duration
	OTPMaxAttempts int
}

// Session is the result of any successful sign-in.
type Session struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// Account state codes returned with 403 responses.
const (
	CodeBlocked    = "BLOCKED"
	CodeDeleted    = "DELETED"
	CodeGoogleOnly = "GOOGLE_ONLY"
)

type AuthService struct {
	users    UserStore
	otps     OTPStore
	tokens   RefreshTokenStore
	signup   SignupCreditSource
	mail     OTPSender
	google   GoogleAuthenticator
	jwt      *auth.TokenManager
	cfg      AuthConfig
	log      *zap.Logger
	now      func() time.Time
	genCode  func() (string, error)
	hashCode func(string) (string, error)
}

type AuthDeps struct {
	Users  UserStore
	OTPs   OTPStore
	Tokens RefreshTokenStore
	Signup SignupCreditSource
	Mail   OTPSender
	Google GoogleAuthenticator
	JWT    *auth.TokenManager
	Config AuthConfig
	Log    *zap.Logger
}

func NewAuthService(deps AuthDeps) *AuthService {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Config.OTPTTL <= 0 {
		deps.Config.OTPTTL = 10 * time.Minute
	}
	if deps.Config.OTPMaxAttempts <= 0 {
		deps.Config.OTPMaxAttempts = 5
	}
	return &AuthService{
		users:    deps.Users,
		otps:     deps.OTPs,
		tokens:   deps.Tokens,
		signup:   deps.Signup,
		mail:     deps.Mail,
		google:   deps.Google,
		jwt:      deps.JWT,
		cfg:      deps.Config,
		log:      deps.Log,
		now:      time.Now,
		genCode:  auth.GenerateOTP,
		hashCode: auth.HashOTP,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func accountSummary(u *models.User) map[string]any {
	return map[string]any{"id": u.ID, "name": u.Name, "email": u.Email}
}

// RequestSignupOTP mails a code to an address that has no account yet.
func (s *AuthService) RequestSignupOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalid("Email required")
	}
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return newError(ErrConflict, "Email already registered")
	}
	return s.issueOTP(ctx, email, mailer.PurposeSignup)
}

func (s *AuthService) VerifySignupOTP(ctx context.Context, email, code string) error {
	return s.verifyOTP(ctx, normalizeEmail(email), strings.TrimSpace(code))
}

// CompleteSignup creates the password account once its email OTP is verified.
func (s *AuthService) CompleteSignup(ctx context.Context, email, name, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("Missing fields")
	}
	if err := s.requireVerifiedOTP(ctx, email); err != nil {
		return nil, err
	}
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, newError(ErrConflict, "Email already registered")
	}

	credits, err := s.signup.FreeSignupCredits(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         models.RoleUser,
		Credits:      credits,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.otps.Delete(ctx, email); err != nil {
		return nil, err
	}

	s.log.Info("user signed up", zap.Int64("user_id", user.ID), zap.Int64("credits", credits))
	return s.startSession(ctx, user)
}

// Login checks a password and refuses blocked, deleted and Google-only accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid("User not found")
	}
	if err := accountUsable(user); err != nil {
		return nil, err
	}
	if !user.HasPassword() {
		return nil, invalid("This account uses Google sign in. Please continue with Google.").
			withCode(CodeGoogleOnly).withDetails("user", accountSummary(user))
	}
	if !auth.CheckHash(user.PasswordHash, password) {
		return nil, newError(ErrUnauthenticated, "Invalid password")
	}
	return s.startSession(ctx, user)
}

func accountUsable(user *models.User) error {
	switch {
	case user.IsBlocked:
		return newError(ErrForbidden, "Your account is blocked. Contact support.").
			withCode(CodeBlocked).withDetails("user", accountSummary(user))
	case user.IsDeleted:
		return newError(ErrForbidden, "Your account has been deleted.").
			withCode(CodeDeleted).withDetails("user", accountSummary(user))
	}
	return nil
}

func (s *AuthService) RequestPasswordResetOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalid("Email required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return invalid("No account with this email")
	}
	return s.issueOTP(ctx, email, mailer.PurposePasswordReset)
}

func (s *AuthService) VerifyPasswordResetOTP(ctx context.Context, email, code string) error {
	return s.verifyOTP(ctx, normalizeEmail(email), strings.TrimSpace(code))
}

// ResetPassword sets a new password after the reset OTP was verified.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || newPassword == "" {
		return invalid("Email & newPassword required")
	}
	if err := s.requireVerifiedOTP(ctx, email); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return invalid("No account with this email")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.otps.Delete(ctx, email); err != nil {
		return err
	}
	if err := s.tokens.DeleteAllForUser(ctx, user.ID); err != nil {
		return err
	}
	s.log.Info("password reset", zap.Int64("user_id", user.ID))
	return nil
}

// Refresh rotates a stored refresh token into a new session. The token is
// consumed before anything else so a replayed token cannot mint a second session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, invalid("refreshToken required")
	}
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil, newError(ErrUnauthenticated, "Invalid/expired refresh token")
	}
	consumed, err := s.tokens.Delete(ctx, claims.UserID, refreshToken)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, newError(ErrUnauthenticated, "Invalid refresh token")
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(ErrUnauthenticated, "Invalid refresh token")
	}
	if err := accountUsable(user); err != nil {
		return nil, err
	}
	return s.startSession(ctx, user)
}

// Logout forgets the refresh token. Invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return nil
	}
	_, err = s.tokens.Delete(ctx, claims.UserID, refreshToken)
	return err
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(ErrNotFound, "User not found")
	}
	return user, nil
}

// VerifyAccess loads the caller and rejects blocked or deleted accounts.
func (s *AuthService) VerifyAccess(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(ErrUnauthenticated, "Invalid user")
	}
	if err := accountUsable(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if current == "" || next == "" {
		return invalid("All fields required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return invalid("User not found")
	}
	if !user.HasPassword() {
		return invalid("Password reset is not available for Google login accounts. Please login using Google.")
	}
	if !auth.CheckHash(user.PasswordHash, current) {
		return invalid("Current password is incorrect")
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	return s.tokens.DeleteAllForUser(ctx, userID)
}

// DeleteAccount soft-deletes a password account after re-checking the password.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64, password string) error {
	if password == "" {
		return invalid("Password required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return newError(ErrNotFound, "User not found")
	}
	if !user.HasPassword() {
		return invalid("Cannot delete account using password. This is a Google login account.")
	}
	if !auth.CheckHash(user.PasswordHash, password) {
		return invalid("Password is incorrect")
	}
	if err := s.users.SoftDelete(ctx, userID); err != nil {
		return err
	}
	if err := s.tokens.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}
	s.log.Info("account deleted", zap.Int64("user_id", userID))
	return nil
}

func (s *AuthService) GoogleEnabled() bool {
	return s.google != nil
}

func (s *AuthService) GoogleAuthURL(state string) string {
	return s.google.AuthCodeURL(state)
}

// GoogleSignIn links the Google identity to an account by google id, then email,
// creating one when neither matches.
func (s *AuthService) GoogleSignIn(ctx context.Context, code string) (*Session, error) {
	if s.google == nil {
		return nil, newError(ErrNotFound, "Google sign in is not configured")
	}
	if code == "" {
		return nil, invalid("Missing authorization code")
	}
	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByGoogleID(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.users.FindByEmail(ctx, normalizeEmail(profile.Email))
		if err != nil {
			return nil, err
		}
		if user != nil {
			if err := s.users.LinkGoogleID(ctx, user.ID, profile.ID); err != nil {
				return nil, err
			}
			user.GoogleID = profile.ID
		}
	}
	if user == nil {
		user = &models.User{
			Email:    normalizeEmail(profile.Email),
			Name:     profile.Name,
			GoogleID: profile.ID,
			Role:     models.RoleUser,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.log.Info("user signed up with google", zap.Int64("user_id", user.ID))
	}

	if err := accountUsable(user); err != nil {
		return nil, err
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*Session, error) {
	access, err := s.jwt.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.IssueRefresh(user)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Insert(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) issueOTP(ctx context.Context, email string, purpose mailer.Purpose) error {
	code, err := s.genCode()
	if err != nil {
		return err
	}
	hash, err := s.hashCode(code)
	if err != nil {
		return err
	}
	if err := s.otps.Upsert(ctx, email, hash, s.now().Add(s.cfg.OTPTTL)); err != nil {
		return err
	}
	return s.mail.SendOTP(ctx, email, code, purpose)
}

func (s *AuthService) verifyOTP(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return invalid("Email & OTP required")
	}
	rec, err := s.otps.Get(ctx, email)
	if err != nil {
		return err
	}
	if rec == nil {
		return invalid("Request OTP first")
	}
	if rec.Attempts >= s.cfg.OTPMaxAttempts {
		return invalid("Too many attempts. Request a new OTP")
	}
	if s.now().After(rec.ExpiresAt) {
		return invalid("OTP expired")
	}
	if !auth.CheckHash(rec.Hash, code) {
		if err := s.otps.IncrementAttempts(ctx, email); err != nil {
			return err
		}
		return invalid("Invalid OTP")
	}
	return s.otps.MarkVerified(ctx, email)
}

func (s *AuthService) requireVerifiedOTP(ctx context.Context, email string) error {
	rec, err := s.otps.Get(ctx, email)
	if err != nil {
		return err
	}
	if rec == nil || !rec.Verified || s.now().After(rec.ExpiresAt) {
		return invalid("OTP not verified")
	}
	return nil
}
