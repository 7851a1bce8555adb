package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/digkill/TivoaArt/internal/models"
)

// ErrInsufficientCredits is returned when a debit would take the balance below zero.
var ErrInsufficientCredits = errors.New("insufficient credits")

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, COALESCE(password_hash, ''), COALESCE(google_id, ''), role, credits, is_blocked, is_deleted, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.GoogleID, &role, &u.Credits, &u.IsBlocked, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.findOne(ctx, "google_id = ?", googleID)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `
INSERT INTO users (email, name, password_hash, google_id, role, credits)
VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?)`
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	res, err := r.db.ExecContext(ctx, query, user.Email, user.Name, user.PasswordHash, user.GoogleID, string(user.Role), user.Credits)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	user.ID = id
	return nil
}

func (r *UserRepository) LinkGoogleID(ctx context.Context, userID int64, googleID string) error {
	const query = `UPDATE users SET google_id = ?, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, googleID, userID); err != nil {
		return fmt.Errorf("link google id: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	const query = `UPDATE users SET password_hash = ?, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, hash, userID); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *UserRepository) SoftDelete(ctx context.Context, userID int64) error {
	const query = `UPDATE users SET is_deleted = 1, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	return nil
}

// SetBlocked reports false when no user has the given id.
func (r *UserRepository) SetBlocked(ctx context.Context, userID int64, blocked bool) (bool, error) {
	const query = `UPDATE users SET is_blocked = ?, updated_at = NOW() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, blocked, userID)
	if err != nil {
		return false, fmt.Errorf("set blocked: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("blocked rows affected: %w", err)
	}
	return affected > 0, nil
}

// LockCredits reads the balance and holds the row lock until the transaction ends.
func (r *UserRepository) LockCredits(ctx context.Context, userID int64) (int64, bool, error) {
	const query = `SELECT credits FROM users WHERE id = ? FOR UPDATE`
	var credits int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&credits); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("lock user credits: %w", err)
	}
	return credits, true, nil
}

func (r *UserRepository) AddCredits(ctx context.Context, userID int64, delta int64) error {
	const query = `UPDATE users SET credits = credits + ?, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, delta, userID); err != nil {
		return fmt.Errorf("add credits: %w", err)
	}
	return nil
}

func (r *UserRepository) DebitCredits(ctx context.Context, userID int64, amount int64) error {
	const query = `
UPDATE users SET credits = credits - ?, updated_at = NOW()
WHERE id = ? AND credits >= ?`
	res, err := r.db.ExecContext(ctx, query, amount, userID, amount)
	if err != nil {
		return fmt.Errorf("debit credits: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit rows affected: %w", err)
	}
	if affected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search    string
	SortBy    string
	SortOrder string
	Page      models.Page
}

var userSortColumns = map[string]string{
	"id":      "id",
	"email":   "email",
	"name":    "name",
	"role":    "role",
	"credits": "credits",
}

// orderBy only ever emits whitelisted columns.
func (f UserFilter) orderBy() string {
	column, ok := userSortColumns[f.SortBy]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if strings.EqualFold(f.SortOrder, "desc") {
		direction = "DESC"
	}
	return column + " " + direction
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int, error) {
	where := ""
	var args []any
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = "WHERE (email LIKE ? OR name LIKE ?)"
		like := "%" + search + "%"
		args = append(args, like, like)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ` + where + ` ORDER BY ` + filter.orderBy() + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Page.PerPage, filter.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}
