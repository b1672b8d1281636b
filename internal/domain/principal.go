package domain

import "github.com/google/uuid"

// Role is the caller's role claim.
type Role string

// List of roles
const (
	RoleAdmin    Role = "admin"
	RoleDriver   Role = "driver"
	RoleCustomer Role = "customer"
)

// Valid checks if the Role is valid
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDriver || r == RoleCustomer
}

// Principal is an already-authenticated caller.
type Principal struct {
	ID    uuid.UUID
	Role  Role
	Email string
	Phone string
}

// IsAdmin reports whether the caller is an administrator.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
