package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
	"github.com/SudaisX/DB-Project/pkg/httputil"
	"github.com/SudaisX/DB-Project/pkg/logger"
)

// TokenResolver validates a bearer token and returns a context carrying the
// caller's identity together with the caller's id.
type TokenResolver func(ctx context.Context, token string) (context.Context, string, error)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate rejects requests without a valid bearer token. On success the
// resolver's context is passed on and the request logger gains user_id.
func Authenticate(resolve TokenResolver, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized("not authorized, no token"), l)
				return
			}

			ctx, userID, err := resolve(r.Context(), token)
			if err != nil {
				logger.FromContext(r.Context(), l).DebugContext(r.Context(), "token rejected",
					slog.String("error", err.Error()),
				)
				httputil.WriteError(w, r, apperrors.Unauthorized("not authorized, token failed"), l)
				return
			}

			ctx = logger.WithUserID(ctx, userID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx, l).With(slog.String("user_id", userID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require lets the request through only when allow reports true for its
// context; otherwise it answers 401 with message.
func Require(allow func(ctx context.Context) bool, message string, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(r.Context()) {
				httputil.WriteError(w, r, apperrors.Unauthorized(message), l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
