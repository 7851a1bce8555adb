package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/models"
	"github.com/digkill/TivoaArt/internal/repository"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
	detailsLimit   = 100
)

// NormalizePage clamps paging input to sane bounds.
func NormalizePage(page, perPage int) models.Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return models.Page{Page: page, PerPage: perPage}
}

type AdminUserStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, filter repository.UserFilter) ([]models.User, int, error)
	SetBlocked(ctx context.Context, userID int64, blocked bool) (bool, error)
}

type PaymentHistory interface {
	ListByUser(ctx context.Context, userID int64, page models.Page) ([]models.CreditPayment, int, error)
}

type ImageLister interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.UserImage, error)
}

type UserService struct {
	users    AdminUserStore
	payments PaymentHistory
	images   ImageLister
	log      *zap.Logger
}

func NewUserService(users AdminUserStore, payments PaymentHistory, images ImageLister, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, payments: payments, images: images, log: log}
}

type UserList struct {
	Users      []models.User
	Total      int
	Page       models.Page
	TotalPages int
}

func (s *UserService) List(ctx context.Context, filter repository.UserFilter) (*UserList, error) {
	filter.Page = NormalizePage(filter.Page.Page, filter.Page.PerPage)
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserList{Users: users, Total: total, Page: filter.Page, TotalPages: filter.Page.TotalPages(total)}, nil
}

type UserDetails struct {
	User         *models.User
	Transactions []models.CreditPayment
	Images       []models.UserImage
}

func (s *UserService) Details(ctx context.Context, userID int64) (*UserDetails, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(ErrNotFound, "User not found")
	}
	transactions, _, err := s.payments.ListByUser(ctx, userID, models.Page{Page: 1, PerPage: detailsLimit})
	if err != nil {
		return nil, err
	}
	images, err := s.images.ListByUser(ctx, userID, detailsLimit)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []models.CreditPayment{}
	}
	if images == nil {
		images = []models.UserImage{}
	}
	return &UserDetails{User: user, Transactions: transactions, Images: images}, nil
}

type TransactionPage struct {
	Transactions []models.CreditPayment
	Total        int
	TotalPages   int
}

func (s *UserService) Transactions(ctx context.Context, userID int64, page models.Page) (*TransactionPage, error) {
	page = NormalizePage(page.Page, page.PerPage)
	transactions, total, err := s.payments.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []models.CreditPayment{}
	}
	return &TransactionPage{Transactions: transactions, Total: total, TotalPages: page.TotalPages(total)}, nil
}

func (s *UserService) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	found, err := s.users.SetBlocked(ctx, userID, blocked)
	if err != nil {
		return err
	}
	if !found {
		return newError(ErrNotFound, "User not found")
	}
	s.log.Info("user block state changed", zap.Int64("user_id", userID), zap.Bool("blocked", blocked))
	return nil
}
