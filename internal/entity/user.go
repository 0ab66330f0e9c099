package entity

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleReseller  Role = "reseller"
)

// ValidRole reports whether r is one of the assignable roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleReseller:
		return true
	}
	return false
}

// User is an account in the system. Password accounts carry Email and
// PasswordHash; accounts delegated to an external OAuth provider carry
// ExternalAccountID instead. Role stays nil until assigned.
type User struct {
	ID                int64     `json:"id" db:"id"`
	Email             *string   `json:"email" db:"email"`
	PasswordHash      *string   `json:"-" db:"password_hash"`
	Role              *Role     `json:"role" db:"role"`
	Verified          bool      `json:"account_verified" db:"account_verified"`
	Name              *string   `json:"name" db:"name"`
	LoginFailCount    int       `json:"login_fail_count" db:"login_fail_count"`
	ExternalAccountID *string   `json:"external_account_id,omitempty" db:"external_account_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// RoleOrEmpty returns the assigned role, or "" when none is set yet.
func (u *User) RoleOrEmpty() Role {
	if u.Role == nil {
		return ""
	}
	return *u.Role
}

// Identity is the result of resolving request credentials.
type Identity struct {
	UserID int64
	Role   Role // "" when the account has no role assigned yet
}

// Credentials are the raw authentication headers of a request: the declared
// method (email, google or github) and the opaque bearer token.
type Credentials struct {
	Method string
	Token  string
}

// Authentication method tags accepted on the wire.
const (
	AuthMethodEmail  = "email"
	AuthMethodGoogle = "google"
	AuthMethodGithub = "github"
)

// LoginFailLimit is the number of consecutive failed logins after which an
// account is blocked until an admin resets the counter.
const LoginFailLimit = 3
