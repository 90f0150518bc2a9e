package models

import "time"

// Role is the permission tier of an identity.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleCreator Role = "creator"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleCreator:
		return true
	}
	return false
}

// User represents a member account in the portal.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the acting user for the duration of a request. Guests get an
// identity with role student that is never persisted.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Guest    bool   `json:"guest,omitempty"`
}
