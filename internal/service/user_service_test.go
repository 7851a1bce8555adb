package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/TivoaArt/internal/models"
	"github.com/digkill/TivoaArt/internal/repository"
)

type stubAdminUsers struct {
	*memUsers
	lastFilter repository.UserFilter
}

func (s *stubAdminUsers) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int, error) {
	s.lastFilter = filter
	return nil, 23, nil
}

func (s *stubAdminUsers) SetBlocked(ctx context.Context, userID int64, blocked bool) (bool, error) {
	err := s.update(userID, func(u *models.User) { u.IsBlocked = blocked })
	return err == nil, nil
}

type stubHistory struct {
	page models.Page
}

func (s *stubHistory) ListByUser(ctx context.Context, userID int64, page models.Page) ([]models.CreditPayment, int, error) {
	s.page = page
	return []models.CreditPayment{{UserID: userID, PaymentID: "TR1", Status: models.PaymentSuccess}}, 31, nil
}

type stubImages struct{}

func (stubImages) ListByUser(ctx context.Context, userID int64, limit int) ([]models.UserImage, error) {
	return nil, nil
}

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, models.Page{Page: 1, PerPage: 10}, NormalizePage(0, 0))
	assert.Equal(t, models.Page{Page: 3, PerPage: 100}, NormalizePage(3, 500))
}

func TestUserServiceList(t *testing.T) {
	users := &stubAdminUsers{memUsers: newMemUsers()}
	svc := NewUserService(users, &stubHistory{}, stubImages{}, nil)

	list, err := svc.List(context.Background(), repository.UserFilter{Search: "ann", Page: models.Page{Page: 2, PerPage: 5}})
	require.NoError(t, err)
	assert.Equal(t, 23, list.Total)
	assert.Equal(t, 5, list.TotalPages)
	assert.NotNil(t, list.Users)
	assert.Equal(t, "ann", users.lastFilter.Search)
}

func TestUserServiceDetailsAndBlocking(t *testing.T) {
	users := &stubAdminUsers{memUsers: newMemUsers()}
	history := &stubHistory{}
	svc := NewUserService(users, history, stubImages{}, nil)
	u := users.add(models.User{Email: "ann@example.com"})

	details, err := svc.Details(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", details.User.Email)
	assert.Len(t, details.Transactions, 1)
	assert.NotNil(t, details.Images)
	assert.Equal(t, 100, history.page.PerPage)

	_, err = svc.Details(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.SetBlocked(context.Background(), u.ID, true))
	assert.True(t, users.get(u.ID).IsBlocked)
	assert.ErrorIs(t, svc.SetBlocked(context.Background(), 999, true), ErrNotFound)

	page, err := svc.Transactions(context.Background(), u.ID, models.Page{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalPages)
}
