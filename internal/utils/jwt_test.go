package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := NewSessionToken(testSecret, 42, "farmer1", "f1@example.com", 24)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	claims, err := VerifySessionToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "farmer1", claims.Username)
	assert.Equal(t, "f1@example.com", claims.Email)
	assert.Equal(t, tok.Exp.Unix(), claims.Expires.Unix())
}

func TestSessionTokenExpired(t *testing.T) {
	t.Parallel()

	// Negative TTL produces a token whose validity window is already over.
	tok, err := NewSessionToken(testSecret, 42, "farmer1", "f1@example.com", -1)
	require.NoError(t, err)

	_, err = VerifySessionToken(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionTokenRejections(t *testing.T) {
	t.Parallel()

	tok, err := NewSessionToken(testSecret, 42, "farmer1", "f1@example.com", 24)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{name: "wrong secret", secret: "other-secret", raw: tok.Token},
		{name: "tampered payload", secret: testSecret, raw: tamper(tok.Token)},
		{name: "malformed", secret: testSecret, raw: "not-a-token"},
		{name: "empty", secret: testSecret, raw: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := VerifySessionToken(tt.secret, tt.raw)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

// tamper flips one character in the middle segment of a JWT.
func tamper(raw string) string {
	b := []byte(raw)
	i := len(b) / 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
