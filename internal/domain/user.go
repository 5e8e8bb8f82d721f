package domain

import "time"

// Role is the authority attached to an account and carried by issued tokens.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// User is the domain model for registered accounts.
//
// IDs are integers allocated by the lowest-available-id strategy: after a
// deletion the freed id is handed to the next registration, so they are
// stable but not monotonic.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
