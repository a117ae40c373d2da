package auth

import (
	"context"

	"github.com/nikhilbhutani/chatserver/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, identityKey, u)
}

// IdentityFromContext returns the user attached by Authenticate, or nil.
func IdentityFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(identityKey).(*models.User)
	return u
}
