package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessExpiration is used when the configuration does not set an access TTL.
	DefaultAccessExpiration = 15 * time.Minute

	// DefaultRefreshExpiration is used when the configuration does not set a refresh TTL.
	DefaultRefreshExpiration = 7 * 24 * time.Hour

	// TokenIssuer identifies tokens minted by this service.
	TokenIssuer = "LostFound-Server"
)

var (
	ErrWrongTokenType = errors.New("unexpected token type")
	ErrMissingSubject = errors.New("token has no user id")
)

// GenerateToken signs payload with HS256, stamping the registered claims for duration.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    TokenIssuer,
		Subject:   payload.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	return token.SignedString([]byte(secretKey))
}

// ParseToken verifies signature, issuer and expiry of tokenString and checks that it is
// of the expected type.
func ParseToken(tokenString string, secretKey string, expected TokenType) (*Payload, error) {
	claims := &Payload{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return []byte(secretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	if claims.Type != expected {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, claims.Type, expected)
	}

	if claims.UserID == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}

// Pair is the result of a login: an access token and the refresh token that renews it.
type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Issuer mints and verifies tokens with one secret and fixed lifetimes.
type Issuer struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer returns an Issuer; non-positive TTLs fall back to the defaults.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessExpiration
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshExpiration
	}

	return &Issuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssuePair creates a fresh access/refresh pair for the user.
func (i *Issuer) IssuePair(userID, username string) (Pair, error) {
	now := time.Now()

	access, err := GenerateToken(&Payload{UserID: userID, Username: username, Type: TypeAccess}, i.secret, i.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := GenerateToken(&Payload{UserID: userID, Username: username, Type: TypeRefresh}, i.secret, i.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Pair{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(i.accessTTL),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(i.refreshTTL),
	}, nil
}

// ParseAccess validates an access token.
func (i *Issuer) ParseAccess(token string) (*Payload, error) {
	return ParseToken(token, i.secret, TypeAccess)
}

// ParseRefresh validates a refresh token.
func (i *Issuer) ParseRefresh(token string) (*Payload, error) {
	return ParseToken(token, i.secret, TypeRefresh)
}
