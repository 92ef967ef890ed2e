// internal/domain/auth/entity.go
package auth

import (
	"fmt"
	"time"
)

// Role selects which part of the app a signed-in user can reach
type Role string

const (
	RoleClient Role = "client"
	RoleArtist Role = "artist"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the three known roles
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleArtist, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a raw role string, rejecting anything unknown
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// UserRecord is the authenticated identity as returned by the API and
// persisted alongside the token
type UserRecord struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FullName returns "First Last" for display
func (u UserRecord) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Account is the sandbox-side view of a user, including the password hash
type Account struct {
	UserRecord
	PasswordHash string    `json:"-" db:"password_hash"`
	Status       string    `json:"status" db:"status"` // active, suspended, pending
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
