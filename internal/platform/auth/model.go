package auth

import "time"

// User is a row in the users table. The library core only ever needs
// (id, role) for authorization and (email, first_name) for reminders.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
