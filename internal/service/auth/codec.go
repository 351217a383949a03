package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/models"
)

// TokenCodec signs and verifies token payloads with a process-wide
// symmetric key. It knows nothing about the blacklist or user store.
type TokenCodec struct {
	key []byte
	alg jwt.SigningMethod
}

func NewTokenCodec(secretKey string, alg string) (TokenCodec, error) {
	if secretKey == "" {
		return TokenCodec{}, errors.New("secret key must not be empty")
	}

	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return TokenCodec{}, fmt.Errorf("unknown signing method: %q", alg)
	}

	return TokenCodec{key: []byte(secretKey), alg: method}, nil
}

func (c TokenCodec) Encode(claims models.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(c.alg, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("error while signing token. Err: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and standard time claims.
// Expired tokens fail with apperrors.ErrTokenExpired, everything else
// (bad signature, malformed structure, wrong algorithm) with
// apperrors.ErrTokenInvalid.
func (c TokenCodec) Decode(raw string) (models.Claims, error) {
	claims := &models.Claims{}

	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(t *jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)

	switch {
	case err == nil:
		return *claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return *claims, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	default:
		return *claims, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}
}
