package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the payload signed into every token.
// Subject is the user id, ID (jti) is unique per token and used
// for blacklist lookups of refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// UserID parses the subject claim as user id
func (c Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenService on login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
