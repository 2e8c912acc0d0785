package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_VerifyRoundTrip(t *testing.T) {
	h, err := Password("s3cret-passw0rd")
	require.NoError(t, err)
	require.NotEmpty(t, h)

	assert.NotEqual(t, "s3cret-passw0rd", h)
	assert.True(t, Verify("s3cret-passw0rd", h))
	assert.False(t, Verify("wrong-password", h))
}

func TestPassword_SaltedPerCall(t *testing.T) {
	a, err := Password("same-input")
	require.NoError(t, err)
	b, err := Password("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "each hash should carry a fresh salt")
	assert.True(t, Verify("same-input", a))
	assert.True(t, Verify("same-input", b))
}

func TestVerify_MalformedHash(t *testing.T) {
	assert.False(t, Verify("anything", ""))
	assert.False(t, Verify("anything", "not-a-bcrypt-hash"))
}
