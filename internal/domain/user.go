package domain

import "time"

// Role describes what a caller may do with the library.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleMember    Role = "member"
	RoleAdmin     Role = "admin"
)

// Authenticated reports whether the role belongs to a logged-in user.
func (r Role) Authenticated() bool {
	return r == RoleMember || r == RoleAdmin
}

// User represents an authenticated user of the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
