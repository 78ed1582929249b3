package types

import "time"

// Roles assignable to a user account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the display name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. Unique across accounts and
	// used as the login credential.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the system
	// ("admin" or "user").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// ProfilePicture is the object-storage key of the user's uploaded
	// profile picture, empty when none has been uploaded.
	ProfilePicture string `json:"profile_picture" db:"profile_picture"`

	// Archived marks the account as dormant. It does not affect
	// authentication or visibility of the user's books.
	Archived bool `json:"archived" db:"archived"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
