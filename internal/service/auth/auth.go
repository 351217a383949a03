package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/models"
	"github.com/nkiryanov/accountd/internal/repository"
)

const (
	defaultAccessHeaderName = "Authorization"
	defaultAccessAuthScheme = "Bearer"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

var DefaultHasher = BcryptHasher{}

type Config struct {
	// Hasher to use during registration and login
	// BcryptHasher is used if not set
	Hasher PasswordHasher
}

// AuthService glues the user store and the token service together.
// It owns credential checks, the token service owns the token lifecycle.
type AuthService struct {
	tokens *TokenService
	hasher PasswordHasher
	users  repository.UserRepo
}

func NewService(cfg Config, tokens *TokenService, users repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if tokens == nil || users == nil {
		return nil, errors.New("token service and user repo must not be nil")
	}

	return &AuthService{
		tokens: tokens,
		hasher: hasher,
		users:  users,
	}, nil
}

// Register creates a user account. No tokens are issued: the client is
// expected to call Login afterwards.
// Username defaults to the email when empty.
func (s *AuthService) Register(ctx context.Context, email string, password string, username string) (models.User, error) {
	email = NormalizeEmail(email)
	if username == "" {
		username = email
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		Email:          email,
		Username:       username,
		HashedPassword: hash,
	})
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login checks credentials and issues a token pair.
// Unknown email, wrong password and deactivated account all fail the
// same way so the response leaks nothing.
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

// Refresh rotates the refresh token and returns a new pair
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	return s.tokens.Rotate(ctx, refresh)
}

// Logout revokes the refresh token.
// An already invalid or expired token is the caller's error, not a
// silent success.
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.tokens.Revoke(ctx, refresh)
}

// Authenticate reads the bearer access token from the request and
// returns the user it belongs to
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (models.User, error) {
	access, err := bearerToken(r)
	if err != nil {
		return models.User{}, err
	}

	userID, err := s.tokens.ValidateAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(defaultAccessHeaderName)

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, defaultAccessAuthScheme) || token == "" {
		return "", fmt.Errorf("%w: no bearer token in request", apperrors.ErrTokenInvalid)
	}

	return token, nil
}

// NormalizeEmail lowercases the email the way the user store expects it
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
