package utils // package utils provides helper functions for session token creation and hashing

import (
	"errors" // sentinel errors for token verification failures
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken represents a signed HS256 JWT along with its expiry.  The
// Token field contains the serialized JWT string.  Exp stores the
// expiration timestamp.  Session tokens are sent in the Authorization
// header when calling protected endpoints and are valid for a fixed
// window from issuance (24 hours by default); there is no server-side
// revocation, a token simply expires.
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// SessionClaims are the identity claims embedded in a session token.
type SessionClaims struct {
	UserID   uint64 // subject account identifier (sub)
	Username string // account username
	Email    string // account email
	IssuedAt time.Time
	Expires  time.Time
}

// ErrTokenInvalid is returned by VerifySessionToken for any token that
// fails signature verification, is structurally malformed, or has
// expired.  Callers must treat all of these identically: deny access.
var ErrTokenInvalid = errors.New("invalid or expired token")

// NewSessionToken builds and signs an HS256 JWT for an account.  It takes
// the signing secret, the account identity, and a TTL in hours.  The JWT
// includes the subject (sub), username, email, expiration (exp) and
// issued at (iat) claims.
func NewSessionToken(secret string, userID uint64, username, email string, ttlHours int) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlHours) * time.Hour)
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"email":    email,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// VerifySessionToken parses and validates a raw session token string and
// returns its claims.  It is a pure function with no transport
// dependency so it can be tested independently of the HTTP layer.
// Verification rejects tokens signed with an unexpected method, tokens
// with a bad signature, malformed tokens and expired tokens; every
// failure collapses into ErrTokenInvalid.
func VerifySessionToken(secret, raw string) (SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return SessionClaims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, ErrTokenInvalid
	}
	sub, ok := mc["sub"].(float64)
	if !ok || sub <= 0 {
		return SessionClaims{}, ErrTokenInvalid
	}
	out := SessionClaims{UserID: uint64(sub)}
	if v, ok := mc["username"].(string); ok {
		out.Username = v
	}
	if v, ok := mc["email"].(string); ok {
		out.Email = v
	}
	if v, ok := mc["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(v), 0).UTC()
	}
	if v, ok := mc["exp"].(float64); ok {
		out.Expires = time.Unix(int64(v), 0).UTC()
	}
	return out, nil
}
