package service

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/models"
)

type ContactStore interface {
	Create(ctx context.Context, req *models.ContactRequest) error
	List(ctx context.Context, page models.Page, ascending bool) ([]models.ContactRequest, int, error)
}

type ContactService struct {
	store ContactStore
	log   *zap.Logger
}

func NewContactService(store ContactStore, log *zap.Logger) *ContactService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactService{store: store, log: log}
}

func (s *ContactService) Submit(ctx context.Context, name, email, message string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)
	if name == "" || email == "" || message == "" {
		return invalid("All fields are required.")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("A valid email is required.")
	}
	if err := s.store.Create(ctx, &models.ContactRequest{Name: name, Email: email, Message: message}); err != nil {
		return err
	}
	s.log.Info("contact request saved", zap.String("email", email))
	return nil
}

type ContactPage struct {
	Requests []models.ContactRequest
	Total    int
}

// List pages through contact requests; newest first unless sort is "asc".
func (s *ContactService) List(ctx context.Context, page models.Page, sort string) (*ContactPage, error) {
	page = NormalizePage(page.Page, page.PerPage)
	requests, total, err := s.store.List(ctx, page, strings.EqualFold(sort, "asc"))
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.ContactRequest{}
	}
	return &ContactPage{Requests: requests, Total: total}, nil
}
