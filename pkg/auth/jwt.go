package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("session token is invalid")
	ErrTokenExpired = errors.New("session token is expired")
)

// SessionIssuer mints and validates HMAC-signed session tokens carrying
// the authenticated wallet address.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

// SessionClaims are the claims embedded in a session token.
type SessionClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// NewSessionIssuer creates an issuer. ttl bounds how long a session stays
// valid without re-signing the challenge.
func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured session lifetime.
func (i *SessionIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a session token for an authenticated address.
func (i *SessionIssuer) Issue(address string) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns the wallet address it was
// issued for.
func (i *SessionIssuer) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Address == "" {
		return "", ErrTokenInvalid
	}
	return claims.Address, nil
}
