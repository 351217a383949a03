package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/handlers/render"
	"github.com/nkiryanov/accountd/internal/handlers/userctx"
	"github.com/nkiryanov/accountd/internal/models"
)

type authService interface {
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware rejects requests without a valid bearer access token
// and puts the authenticated user into the request context
func AuthMiddleware(as authService, l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Authenticate(r.Context(), r)
			if err != nil {
				// Bad tokens are the client's problem, anything else
				// (user store down etc.) has to surface in the logs
				if !isTokenError(err) {
					l.Error("authentication failed", "error", err)
				}
				render.Error(w, "Invalid or expired access token", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isTokenError(err error) bool {
	return errors.Is(err, apperrors.ErrTokenInvalid) ||
		errors.Is(err, apperrors.ErrTokenExpired) ||
		errors.Is(err, apperrors.ErrUserNotFound)
}
