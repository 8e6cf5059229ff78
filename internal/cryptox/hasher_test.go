package cryptox

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$2a$"), "digest must be self-describing, got %q", digest)
	assert.NotContains(t, digest, "pw1")

	ok, err := h.Verify("pw1", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("pw2", digest)
	require.NoError(t, err, "mismatch must not be an error")
	assert.False(t, ok)
}

func TestBcryptHasher_SaltedDigestsDiffer(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_CostIsEncoded(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost + 1)

	digest, err := h.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, DefaultCost, NewBcryptHasher(0).Cost())
	assert.Equal(t, bcrypt.MaxCost, NewBcryptHasher(99).Cost())
	assert.Equal(t, 12, NewBcryptHasher(12).Cost())
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, digest := range []string{"", "short", "$9z$10$abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz0123"} {
		ok, err := h.Verify("pw", digest)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrMalformedDigest, "digest %q", digest)
	}
}

func TestBcryptHasher_PasswordTooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, common.ErrPasswordTooLong)
	assert.ErrorIs(t, err, common.ErrorBadRequest)
}

func TestBcryptHasher_VerifyRejectsOverlongCandidate(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	stored := strings.Repeat("a", 72)

	digest, err := h.Hash(stored)
	require.NoError(t, err)

	ok, err := h.Verify(stored, digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(stored+"EXTRA", digest)
	require.NoError(t, err)
	assert.False(t, ok, "input past 72 bytes must not match its truncated prefix")
}
