package model

// Caller is the identity a request runs under. It is passed explicitly into
// every policy, service and lifecycle call.
//
// The zero value is the anonymous caller: UserID 0 never matches a stored
// user, because SQLite row ids start at 1.
type Caller struct {
	UserID   int64
	Username string
	Role     string
	IsStaff  bool
}

// Anonymous is the caller used when no credential was presented.
var Anonymous = Caller{}

// Authenticated reports whether the caller presented a valid credential.
func (c Caller) Authenticated() bool {
	return c.UserID != 0
}

// IsAdmin reports whether the caller may perform administrative mutations.
func (c Caller) IsAdmin() bool {
	return c.Authenticated() && c.Role == RoleAdmin
}

// Is reports whether the caller is the user with the given id.
func (c Caller) Is(userID int64) bool {
	return c.Authenticated() && c.UserID == userID
}
