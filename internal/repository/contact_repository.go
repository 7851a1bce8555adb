package repository

import (
	"context"
	"fmt"

	"github.com/digkill/TivoaArt/internal/models"
)

type ContactRepository struct {
	db DBTX
}

func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, req *models.ContactRequest) error {
	const query = `INSERT INTO contact_requests (name, email, message) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, req.Name, req.Email, req.Message)
	if err != nil {
		return fmt.Errorf("insert contact request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	req.ID = id
	return nil
}

func (r *ContactRepository) List(ctx context.Context, page models.Page, ascending bool) ([]models.ContactRequest, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_requests`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact requests: %w", err)
	}

	order := "DESC"
	if ascending {
		order = "ASC"
	}
	query := `SELECT id, name, email, message, created_at FROM contact_requests ORDER BY created_at ` + order + `, id ` + order + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list contact requests: %w", err)
	}
	defer rows.Close()

	requests := []models.ContactRequest{}
	for rows.Next() {
		var c models.ContactRequest
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.SubmittedAt); err != nil {
			return nil, 0, fmt.Errorf("scan contact request: %w", err)
		}
		requests = append(requests, c)
	}
	return requests, total, rows.Err()
}
