package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a bearer token without verifying its
// signature; the companion never holds the backend's signing key.
// ok is false when the token is not a JWT or carries no exp claim.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// TokenExpired reports whether token is a JWT whose exp lies before now.
// Opaque tokens and tokens without exp are never considered expired.
func TokenExpired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && !exp.After(now)
}
