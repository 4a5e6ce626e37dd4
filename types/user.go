package types

import "time"

// User represents an account in the system.
// Accounts are immutable after registration; there is no update or
// delete surface.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// The raw password is never persisted, and this field is never
	// exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
