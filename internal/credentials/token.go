package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether token is a JWT whose exp claim is before now.
// Opaque tokens and JWTs without an exp claim never expire on the client;
// the server remains the authority for those.
func TokenExpired(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
