package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService_RequiresKey(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	svc, err := NewTokenService("test-secret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, svc.ttl)

	token, err := svc.Issue("user-123")
	require.NoError(t, err)

	id, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)
}

func TestVerify_Expired(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }
	token, err := svc.Issue("user-123")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestVerify_Invalid(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenService("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("user-123")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "user-123"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":        "not-a-jwt",
		"wrong key":      foreign,
		"alg none":       noneToken,
		"missing expiry": noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTokenInvalid), "got %v", err)
			assert.False(t, errors.Is(err, ErrTokenExpired))
		})
	}
}
