package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/digkill/TivoaArt/internal/auth"
	"github.com/digkill/TivoaArt/internal/mailer"
	"github.com/digkill/TivoaArt/internal/models"
)

type memUsers struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*models.User{}}
}

func (m *memUsers) add(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	m.byID[u.ID] = &u
	cp := u
	return &cp
}

func (m *memUsers) get(id int64) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

func (m *memUsers) find(match func(*models.User) bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id }), nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (m *memUsers) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.GoogleID != "" && u.GoogleID == googleID }), nil
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	if existing, _ := m.FindByEmail(ctx, user.Email); existing != nil {
		return errors.New("duplicate email")
	}
	created := m.add(*user)
	user.ID = created.ID
	return nil
}

func (m *memUsers) update(id int64, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return errors.New("no user")
	}
	fn(u)
	return nil
}

func (m *memUsers) LinkGoogleID(ctx context.Context, userID int64, googleID string) error {
	return m.update(userID, func(u *models.User) { u.GoogleID = googleID })
}

func (m *memUsers) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	return m.update(userID, func(u *models.User) { u.PasswordHash = hash })
}

func (m *memUsers) SoftDelete(ctx context.Context, userID int64) error {
	return m.update(userID, func(u *models.User) { u.IsDeleted = true })
}

type memOTPs struct {
	records map[string]*models.OTP
}

func (m *memOTPs) Upsert(ctx context.Context, email, hash string, expiresAt time.Time) error {
	if m.records == nil {
		m.records = map[string]*models.OTP{}
	}
	m.records[email] = &models.OTP{Email: email, Hash: hash, ExpiresAt: expiresAt}
	return nil
}

func (m *memOTPs) Get(ctx context.Context, email string) (*models.OTP, error) {
	rec, ok := m.records[email]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *memOTPs) IncrementAttempts(ctx context.Context, email string) error {
	m.records[email].Attempts++
	return nil
}

func (m *memOTPs) MarkVerified(ctx context.Context, email string) error {
	m.records[email].Verified = true
	return nil
}

func (m *memOTPs) Delete(ctx context.Context, email string) error {
	delete(m.records, email)
	return nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]int64
}

func (m *memTokens) Insert(ctx context.Context, userID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string]int64{}
	}
	m.tokens[token] = userID
	return nil
}

func (m *memTokens) Delete(ctx context.Context, userID int64, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.tokens[token]; ok && id == userID {
		delete(m.tokens, token)
		return true, nil
	}
	return false, nil
}

func (m *memTokens) DeleteAllForUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, id := range m.tokens {
		if id == userID {
			delete(m.tokens, token)
		}
	}
	return nil
}

func (m *memTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

type sentOTP struct {
	to, code string
	purpose  mailer.Purpose
}

type recordingMail struct {
	sent []sentOTP
}

func (r *recordingMail) SendOTP(ctx context.Context, to, code string, purpose mailer.Purpose) error {
	r.sent = append(r.sent, sentOTP{to, code, purpose})
	return nil
}

type fixedSignupCredits int64

func (f fixedSignupCredits) FreeSignupCredits(ctx context.Context) (int64, error) {
	return int64(f), nil
}

type fakeGoogle struct {
	profile *auth.GoogleProfile
	err     error
}

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.test/auth?state=" + state
}

func (g *fakeGoogle) Exchange(ctx context.Context, code string) (*auth.GoogleProfile, error) {
	return g.profile, g.err
}
