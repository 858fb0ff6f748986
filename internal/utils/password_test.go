package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, "correct horse")

	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "battery staple"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	// Fails closed on anything that is not a bcrypt hash.
	assert.False(t, VerifyPassword("", "pw"))
	assert.False(t, VerifyPassword("plaintext", "pw"))
	assert.False(t, VerifyPassword("$2a$garbage", "pw"))
}

func TestHashPasswordDistinctSalts(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("pw", 4)
	require.NoError(t, err)
	h2, err := HashPassword("pw", 4)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
