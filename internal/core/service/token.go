package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/insureline/portal/internal/core/domain"
)

// TokenValidator decides whether a bearer token issued by the auth service
// can back a session, and until when.
//
// With a shared secret the token must be an HS256 JWT with a valid
// signature. Without one, JWTs are read unverified for their expiry and
// opaque tokens are accepted for the configured session TTL.
type TokenValidator struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenValidator(secret string, ttl time.Duration) *TokenValidator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	v := &TokenValidator{ttl: ttl}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

// Expiry returns the moment the session backed by token must end.
func (v *TokenValidator) Expiry(token string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(token) == "" {
		return time.Time{}, domain.ErrInvalidToken
	}
	limit := now.Add(v.ttl)

	claims := jwt.RegisteredClaims{}
	switch {
	case v.secret != nil:
		_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return v.secret, nil
		}, jwt.WithTimeFunc(func() time.Time { return now }))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
		}
	case strings.Count(token, ".") == 2:
		if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
		}
	default:
		return limit, nil
	}

	if claims.ExpiresAt == nil {
		return limit, nil
	}
	exp := claims.ExpiresAt.Time
	if !now.Before(exp) {
		return time.Time{}, fmt.Errorf("%w: token expired", domain.ErrInvalidToken)
	}
	if exp.Before(limit) {
		return exp, nil
	}
	return limit, nil
}
