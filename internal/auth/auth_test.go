package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndValidate(t *testing.T) {
	m := NewTokenManager("secret", "eyecare-tracker", time.Hour)

	token, issued, err := m.Issue("uid-1", "anna@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := m.Validate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UserID)
	assert.Equal(t, "anna@example.com", claims.Email)
	assert.Equal(t, issued.ID, claims.ID)

	_, second, err := m.Issue("uid-1", "anna@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, issued.ID, second.ID)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", "eyecare-tracker", time.Hour)
	token, _, err := m.Issue("uid-1", "anna@example.com")
	require.NoError(t, err)

	_, err = m.Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenManager("other-secret", "eyecare-tracker", time.Hour)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewTokenManager("secret", "someone-else", time.Hour)
	_, err = wrongIssuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "uid-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Validate(unsigned)
	assert.Error(t, err)
}

func TestTokenManager_Expiry(t *testing.T) {
	m := NewTokenManager("secret", "eyecare-tracker", time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	token, claims, err := m.Issue("uid-1", "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.Remaining(claims))

	now = now.Add(2 * time.Hour)
	_, err = m.Validate(token)
	assert.True(t, errors.Is(err, ErrExpiredToken))
	assert.Equal(t, time.Duration(0), m.Remaining(claims))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
