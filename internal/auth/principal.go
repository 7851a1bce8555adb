package auth

import (
	"context"

	"github.com/digkill/TivoaArt/internal/models"
)

// Principal is the authenticated caller resolved from the access token.
type Principal struct {
	UserID int64
	Email  string
	Role   models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID > 0
}
