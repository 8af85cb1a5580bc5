// Package api implements the dayblocks REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/dayblocks/internal/auth"
)

// AuthConfig selects how the acting user of a request is resolved.
type AuthConfig struct {
	Mode        string
	DefaultUser string
	JWTSecret   string
}

// AuthMiddleware returns middleware that resolves the user id and stores it
// in the request context.
//
//   - disabled: every request acts as DefaultUser.
//   - header: the X-User-ID header set by an upstream proxy is trusted.
//   - jwt: an HS256 "Authorization: Bearer <token>" header must carry a userId claim.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	secret := []byte(cfg.JWTSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolveUser(cfg, secret, r)
			if err == nil && userID == "" {
				err = auth.ErrNoCredentials
			}
			if err != nil {
				writeError(w, "authenticate", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), userID)))
		})
	}
}

func resolveUser(cfg AuthConfig, secret []byte, r *http.Request) (string, error) {
	switch cfg.Mode {
	case auth.ModeHeader:
		return strings.TrimSpace(r.Header.Get(auth.HeaderUserID)), nil
	case auth.ModeJWT:
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			return "", auth.ErrNoCredentials
		}
		return auth.UserFromToken(strings.TrimPrefix(h, "Bearer "), secret)
	default:
		return cfg.DefaultUser, nil
	}
}

func userID(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}
