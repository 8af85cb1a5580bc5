// Package auth resolves the acting user of a request and carries it in the
// request context.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/dayblocks/internal/apperr"
)

// Modes accepted by the auth middleware.
const (
	ModeDisabled = "disabled"
	ModeHeader   = "header"
	ModeJWT      = "jwt"
)

// HeaderUserID is trusted verbatim in header mode.
const HeaderUserID = "X-User-ID"

// ErrInvalidToken is returned for tokens that fail verification or carry no
// user. It matches apperr.ErrUnauthorized.
var ErrInvalidToken = fmt.Errorf("invalid token: %w", apperr.ErrUnauthorized)

// ErrNoCredentials is returned when a request carries no user at all.
var ErrNoCredentials = fmt.Errorf("no credentials: %w", apperr.ErrUnauthorized)

type ctxKey struct{}

// WithUser returns a copy of ctx carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the user stored in ctx.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Claims are the token claims issued by the session service.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// GenerateToken signs an HS256 token for userID.
func GenerateToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		UserID: userID,
	})
	return token.SignedString(secret)
}

// UserFromToken verifies an HS256 token and returns its user id.
func UserFromToken(tokenString string, secret []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
