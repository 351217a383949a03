package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	Username       string
	HashedPassword string
	IsActive       bool
	IsStaff        bool
	IsSuperuser    bool
}

// HasPerm reports whether the user is allowed to perform privileged actions.
// Superusers have full access.
func (u User) HasPerm() bool {
	return u.IsSuperuser
}
