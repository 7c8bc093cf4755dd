package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// ErrNoToken is returned when the Authorization header is missing.
var ErrNoToken = errors.New("no token provided")

// Tokens issues and verifies HS256 tokens carrying a user_id claim.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a Tokens signing with secret.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate creates a token for userID.
// Used by: SignupHandler, LoginHandler
func (t *Tokens) Generate(userID int64) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("token secret not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     t.now().Add(t.ttl).Unix(),
	})
	return token.SignedString(t.secret)
}

// UserIDFromRequest extracts the user id from a Bearer token.
// Used by: Middleware
func (t *Tokens) UserIDFromRequest(r *http.Request) (int64, error) {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		return 0, ErrNoToken
	}
	return t.Parse(strings.TrimPrefix(raw, "Bearer "))
}

// Parse validates tokenString and returns its user id.
func (t *Tokens) Parse(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("token has no user_id")
	}
	return int64(id), nil
}
