package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := svc.Issue("user-123", "agent")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "agent", claims.Role)
}

func TestParse_RejectsGarbage(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = svc.Parse("not.a.token")
	assert.Error(t, err)
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	issuer, err := NewTokenService("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenService("secret-b", time.Hour)
	require.NoError(t, err)

	token, _, err := issuer.Issue("user-123", "agent")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.Error(t, err)
}

func TestParse_RejectsExpired(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Nanosecond)
	require.NoError(t, err)

	// ttl <= 0 is normalized, so build a barely-valid token and wait it out
	token, _, err := svc.Issue("user-123", "agent")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.Parse(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong-pass"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
}
