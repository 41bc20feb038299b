package authsvc

import (
	"errors"
	"os"
)

var (
	AccessSecret   = getEnv("ACCESS_SECRET", "access-secret")
	RefreshSecret  = getEnv("REFRESH_SECRET", "refresh-secret")
	CookieHashKey  = getEnv("COOKIE_HASH_KEY", "very-secret")
	CookieBlockKey = getEnv("COOKIE_BLOCK_KEY", "a-lots-of-secret")
)

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

type contextKey string

const JWTUUIDContextKey contextKey = "JWTUUID"

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenMalformed     = errors.New("token malformed")
	ErrSignatureInvalid   = errors.New("token signature invalid")
	ErrUUIDMissing        = errors.New("token UUID was not passed through the context")
	ErrClaimsMissing      = errors.New("JWT claims was not passed through the context")
	ErrClaimsInvalid      = errors.New("JWT claims was invalid")
)
