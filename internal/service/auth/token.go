package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/models"
	"github.com/nkiryanov/accountd/internal/repository"
)

const (
	defaultAccessTokenTTL  = 30 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultSigningMethod   = "HS256"
)

type TokenServiceConfig struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService owns the refresh token lifecycle: a token is Active once
// issued and becomes Revoked forever after it is rotated or explicitly
// revoked. Expiry is a time predicate checked on decode, not a state.
type TokenService struct {
	codec TokenCodec

	accessTTL  time.Duration
	refreshTTL time.Duration

	// Revoked refresh token ids, shared between processes
	blacklist repository.TokenBlacklistRepo
}

func NewTokenService(cfg TokenServiceConfig, blacklist repository.TokenBlacklistRepo) (*TokenService, error) {
	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	codec, err := NewTokenCodec(cfg.SecretKey, cfg.Alg)
	if err != nil {
		return nil, err
	}

	return &TokenService{
		codec:      codec,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		blacklist:  blacklist,
	}, nil
}

// IssuePair mints a fresh access and refresh token pair for the user
func (s *TokenService) IssuePair(ctx context.Context, userID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)

	access, accessExpiresAt, err := s.issue(userID, models.TokenTypeAccess, now)
	if err != nil {
		return pair, err
	}

	refresh, refreshExpiresAt, err := s.issue(userID, models.TokenTypeRefresh, now)
	if err != nil {
		return pair, err
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// Rotate exchanges a refresh token for a fresh pair.
// The used token is blacklisted first: every refresh token is single use.
// Note: the subject is not checked against the user store here, a
// deactivated user keeps refreshing until the token expires naturally.
func (s *TokenService) Rotate(ctx context.Context, refresh string) (models.TokenPair, error) {
	claims, err := s.decodeRefresh(refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: bad jti claim", apperrors.ErrTokenInvalid)
	}

	revoked, err := s.blacklist.Contains(ctx, tokenID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while checking blacklist. Err: %w", err)
	}
	if revoked {
		return models.TokenPair{}, apperrors.ErrTokenRevoked
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: bad subject claim", apperrors.ErrTokenInvalid)
	}

	err = s.blacklist.Add(ctx, models.BlacklistedToken{
		TokenID:       tokenID,
		BlacklistedAt: time.Now(),
		ExpiresAt:     claims.ExpiresAt.Time,
	})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while blacklisting used token. Err: %w", err)
	}

	return s.IssuePair(ctx, userID)
}

// ValidateAccess checks the token and returns its subject.
// Access tokens are never blacklisted individually, so the check is
// completely stateless.
func (s *TokenService) ValidateAccess(ctx context.Context, access string) (uuid.UUID, error) {
	claims, err := s.codec.Decode(access)
	if err != nil {
		return uuid.Nil, err
	}

	if claims.TokenType != models.TokenTypeAccess {
		return uuid.Nil, fmt.Errorf("%w: not an access token", apperrors.ErrTokenInvalid)
	}

	userID, err := claims.UserID()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject claim", apperrors.ErrTokenInvalid)
	}

	return userID, nil
}

// Revoke blacklists the refresh token for the rest of its lifetime.
// Revoking an already revoked token is a no-op.
func (s *TokenService) Revoke(ctx context.Context, refresh string) error {
	claims, err := s.decodeRefresh(refresh)
	if err != nil {
		return err
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return fmt.Errorf("%w: bad jti claim", apperrors.ErrTokenInvalid)
	}

	err = s.blacklist.Add(ctx, models.BlacklistedToken{
		TokenID:       tokenID,
		BlacklistedAt: time.Now(),
		ExpiresAt:     claims.ExpiresAt.Time,
	})
	if err != nil {
		return fmt.Errorf("error while blacklisting token. Err: %w", err)
	}

	return nil
}

func (s *TokenService) issue(userID uuid.UUID, tokenType models.TokenType, now time.Time) (string, time.Time, error) {
	ttl := s.accessTTL
	if tokenType == models.TokenTypeRefresh {
		ttl = s.refreshTTL
	}
	expiresAt := now.Add(ttl)

	signed, err := s.codec.Encode(models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: tokenType,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error while signing %s token. Err: %w", tokenType, err)
	}

	return signed, expiresAt, nil
}

func (s *TokenService) decodeRefresh(refresh string) (models.Claims, error) {
	claims, err := s.codec.Decode(refresh)
	if err != nil {
		return claims, err
	}

	if claims.TokenType != models.TokenTypeRefresh {
		return claims, fmt.Errorf("%w: not a refresh token", apperrors.ErrTokenInvalid)
	}

	return claims, nil
}
