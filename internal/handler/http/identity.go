package http

import (
	"context"
	"net/http"

	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
	"github.com/SudaisX/DB-Project/pkg/middleware"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/service"
)

type identityKey struct{}

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// tokenResolver bridges bearer tokens to the user service. The resolved
// identity is loaded fresh from storage on every request.
func tokenResolver(users *service.UserService) middleware.TokenResolver {
	return func(ctx context.Context, token string) (context.Context, string, error) {
		id, err := users.Authenticate(ctx, token)
		if err != nil {
			return ctx, "", err
		}
		return WithIdentity(ctx, id), id.ID, nil
	}
}

func isAdmin(ctx context.Context) bool {
	id, ok := IdentityFromContext(ctx)
	return ok && id.IsAdmin
}

// caller returns the identity set by the authentication middleware.
func caller(r *http.Request) (domain.Identity, error) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		return domain.Identity{}, apperrors.Unauthorized("not authorized, no token")
	}
	return id, nil
}
