package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleListener is the only role accepted on the listener endpoint
const RoleListener = "listener"

// DefaultListenerTTL is the lifetime of a minted listener token
const DefaultListenerTTL = 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail validation
var ErrInvalidToken = errors.New("invalid listener token")

// JWTClaims represents the claims in a listener token
type JWTClaims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateListenerToken mints an HS256 token for a display listener
func GenerateListenerToken(secret []byte, name string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("listener JWT secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultListenerTTL
	}

	now := time.Now()
	claims := &JWTClaims{
		Name: name,
		Role: RoleListener,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a listener token and returns the claims
func ValidateToken(secret []byte, tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleListener {
		return nil, fmt.Errorf("%w: unexpected role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
