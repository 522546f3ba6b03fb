package identity

import (
	"errors"
	"time"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

var (
	// ErrUserExists is returned when registering an email that already has a credential.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no credential exists for an email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPassword is returned for passwords bcrypt cannot hash.
	ErrInvalidPassword = errors.New("password must be between 1 and 72 bytes")
)

// User is a registered account. Email is the account key and is stored exactly
// as received.
type User struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidatePassword rejects passwords that cannot be hashed.
func ValidatePassword(password string) error {
	if password == "" || len(password) > maxPasswordBytes {
		return ErrInvalidPassword
	}
	return nil
}
