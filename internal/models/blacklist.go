package models

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistedToken is a revoked refresh token id.
// The row is useless once ExpiresAt passes (the token fails expiry
// validation on its own) and may be purged at any time after that.
type BlacklistedToken struct {
	TokenID       uuid.UUID
	BlacklistedAt time.Time
	ExpiresAt     time.Time
}
