package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/accountd/internal/handlers/middleware"
	"github.com/nkiryanov/accountd/internal/logger"
	"github.com/nkiryanov/accountd/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	corsOrigins []string,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService, logger)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	mux := http.NewServeMux()

	mux.Handle("POST /register/{$}", handleRegister(authService, logger))
	mux.Handle("POST /login/{$}", handleLogin(authService, logger))
	mux.Handle("POST /refresh/{$}", handleTokenRefresh(authService, logger))
	mux.Handle("POST /logout/{$}", handleLogout(authService, logger))

	mux.Handle("GET /me/{$}", withAuth(handleUserMe()))
	mux.Handle("PUT /me/{$}", withAuth(handleUserMeUpdate(userService, logger)))

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
		middleware.CORSMiddleware(corsOrigins),
	)

	return handler
}

type authService interface {
	// Register user account, no tokens issued
	// Has to return apperrors.ErrUserAlreadyExists on duplicate email
	// and apperrors.ErrUsernameTaken on duplicate username
	Register(ctx context.Context, email string, password string, username string) (models.User, error)

	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials on any credential failure
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Rotate refresh token and return a new pair
	// Has to return apperrors.ErrTokenInvalid, ErrTokenExpired or ErrTokenRevoked
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Revoke refresh token
	Logout(ctx context.Context, refresh string) error

	// Get request and return user if it authenticated or error
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	GetByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (models.User, error)
}
