package middleware

import (
	"log/slog"
	"net/http"

	"github.com/SudaisX/DB-Project/pkg/logger"
)

// RequestLogger stores a request-scoped logger carrying correlation and trace
// ids in the context. Mount it after RequestLogging and Tracing. Handlers read
// it back with logger.FromContext.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
