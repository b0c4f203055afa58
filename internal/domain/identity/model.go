package identity

import (
	"time"
)

// UserType enumerates the account categories.
type UserType string

const (
	TypePatient  UserType = "patient"
	TypeProvider UserType = "provider"
	TypePayor    UserType = "payor"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	switch t {
	case TypePatient, TypeProvider, TypePayor:
		return true
	}
	return false
}

// User maps to the users table. The password is stored only as a bcrypt
// hash; the plaintext never leaves RegisterUser.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Type         UserType  `db:"user_type" json:"user_type"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserView is the authenticated identity returned to callers. It never
// carries credentials.
type UserView struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	UserType UserType `json:"user_type"`
}
