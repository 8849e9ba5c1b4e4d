/*
Package user holds the account model and the credential rules shared by the auth and
profile handlers.
*/
package user

import (
	"context"
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6

	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public is the user shape exposed to other users and to the owner.
type Public struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (u *User) Public() Public {
	return Public{ID: u.ID, Username: u.Username}
}

// ValidUsername reports whether name is 3-32 characters of letters, digits, '.', '_' or '-'.
func ValidUsername(name string) bool {
	return usernameRegex.MatchString(name)
}

// ValidatePassword checks the length bounds of a new password.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword validates and bcrypt-hashes password.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash of u.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Repository persists users. Usernames are unique; CreateUser reports a taken one with
// store.ErrDuplicate.
type Repository interface {
	// CreateUser stores u and assigns its ID and CreatedAt.
	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
