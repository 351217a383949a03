package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nkiryanov/accountd/internal/models"
)

type CreateUserParams struct {
	Email          string
	Username       string
	HashedPassword string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	// If the username is taken by another user has to return apperrors.ErrUsernameTaken
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Set new username for the user
	// If the username is taken by another user has to return apperrors.ErrUsernameTaken
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (models.User, error)
}

// Revoked refresh token ids
type TokenBlacklistRepo interface {
	// Add token id to the blacklist
	// Must be idempotent: adding the same id twice is not an error
	Add(ctx context.Context, token models.BlacklistedToken) error

	// Report whether the token id is blacklisted
	Contains(ctx context.Context, tokenID uuid.UUID) (bool, error)

	// Remove entries expired before the given moment
	// Safe to call at any time: an expired token fails validation on its own
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type Storage interface {
	User() UserRepo
	Blacklist() TokenBlacklistRepo

	// Run fn with storage bound to one db transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
