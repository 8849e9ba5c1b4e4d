package jwt

import "github.com/golang-jwt/jwt/v5"

// TokenType distinguishes short-lived access tokens from refresh tokens so that one
// can never be presented in place of the other.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Payload is the claim set of every token the service issues.
type Payload struct {
	jwt.RegisteredClaims

	// UserID is the store id of the authenticated user.
	UserID string `json:"uid"`

	// Username is carried for logging and for display in real-time events.
	Username string `json:"username"`

	Type TokenType `json:"typ"`
}
