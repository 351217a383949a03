package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/accountd/internal/models"
	"github.com/nkiryanov/accountd/internal/repository"
)

// Profile level operations: everything about the user record that is
// not credentials or tokens
type UserService struct {
	users repository.UserRepo
}

func NewService(users repository.UserRepo) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateUsername sets a new username for the user
// Returns apperrors.ErrUsernameTaken if another user holds it already
func (s *UserService) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (models.User, error) {
	return s.users.UpdateUsername(ctx, userID, username)
}
