package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level of an authenticated actor.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Actor is the authenticated caller of an operation. It is resolved once at
// the edge and passed explicitly to every service call.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the actor has staff privileges.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Profile is the display record of a user.
type Profile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	DisplayName string    `json:"displayName" db:"display_name"`
	Email       string    `json:"email" db:"email"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	Role        Role      `json:"role" db:"role"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// RoleUpdateRequest is the admin payload for changing a user's role.
type RoleUpdateRequest struct {
	Role Role `json:"role" validate:"required,oneof=customer admin"`
}
