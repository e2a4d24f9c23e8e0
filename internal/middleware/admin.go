package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	apperrors "tokenauth/internal/errors"
)

// AdminKeyHeader carries the plaintext admin key on gated endpoints
const AdminKeyHeader = "X-Admin-Key"

// AdminKey gates a route group behind a bcrypt-hashed shared key. With an
// empty hash the gate is open and requests pass through unchanged.
func AdminKey(hash string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(AdminKeyHeader)
			if key == "" {
				logger.WarnContext(r.Context(), "missing admin key",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apperrors.WriteError(w, r, apperrors.New(apperrors.KindUnauthorized, apperrors.CodeUnauthorized, "Admin key required"))
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
				logger.WarnContext(r.Context(), "invalid admin key",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apperrors.WriteError(w, r, apperrors.New(apperrors.KindUnauthorized, apperrors.CodeUnauthorized, "Invalid admin key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
