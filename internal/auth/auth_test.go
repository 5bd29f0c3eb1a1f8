package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speed-article-api/internal/models"
)

func TestIssueAndVerify(t *testing.T) {
	tm := NewTokenManager("secret", "speed", time.Hour)

	token, expiresAt, err := tm.Issue(&models.Moderator{ID: "m1", Role: models.RoleModerator})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "m1", claims.Subject)
	assert.Equal(t, models.RoleModerator, claims.Role)
	assert.Equal(t, "speed", claims.Issuer)
}

func TestVerifyRejects(t *testing.T) {
	tm := NewTokenManager("secret", "speed", time.Hour)
	mod := &models.Moderator{ID: "m1", Role: models.RoleSREC}

	t.Run("expired", func(t *testing.T) {
		old := NewTokenManager("secret", "speed", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := old.Issue(mod)
		require.NoError(t, err)

		_, err = tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewTokenManager("other", "speed", time.Hour).Issue(mod)
		require.NoError(t, err)

		_, err = tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, _, err := NewTokenManager("secret", "elsewhere", time.Hour).Issue(mod)
		require.NoError(t, err)

		_, err = tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "m1", Issuer: "speed"},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Verify("a.b.c")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.NoError(t, CheckPassword(hash, "secret123"))
	assert.ErrorIs(t, CheckPassword(hash, "secret124"), ErrInvalidCredentials)
}
