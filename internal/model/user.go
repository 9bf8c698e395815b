// Package model defines the data structures used throughout the application.
package model

// Roles a user can hold. Only RoleAdmin grants extra rights.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
//
// PasswordHash is never serialized: the `json:"-"` tag drops it from every
// response, so handlers can return a *User directly.
//
// WHY PhotoID *int64?
// The photo is optional. A nil pointer maps to a NULL photo_id column, while 0
// would look like a real (but missing) file id.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	IsStaff      bool   `json:"is_staff"`
	Role         string `json:"role"`
	PhotoID      *int64 `json:"-"`
	Photo        *File  `json:"photo"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Caller returns the identity under which this user's requests run.
func (u *User) Caller() Caller {
	return Caller{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		IsStaff:  u.IsStaff,
	}
}
