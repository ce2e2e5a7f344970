package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/smartapplicant/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestTokenService(_ *testing.T, expirationHours int) *TokenService {
	return NewTokenService(&config.SessionConfig{
		Secret:          testSecret,
		ExpirationHours: expirationHours,
	})
}

func TestTokenService_GenerateToken(t *testing.T) {
	service := setupTestTokenService(t, 2)

	token, err := service.GenerateToken("session-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	assert.Len(t, parts, 3, "JWT should have 3 parts separated by dots")

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "session-1", claims.GetSessionID())
}

func TestTokenService_GenerateToken_EmptySession(t *testing.T) {
	service := setupTestTokenService(t, 2)
	_, err := service.GenerateToken("")
	assert.Error(t, err)
}

func TestTokenService_ValidateToken_Expired(t *testing.T) {
	service := setupTestTokenService(t, 1)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken("session-1")
	require.NoError(t, err)

	service.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestTokenService_ValidateToken_WrongSecret(t *testing.T) {
	token, err := setupTestTokenService(t, 2).GenerateToken("session-1")
	require.NoError(t, err)

	other := NewTokenService(&config.SessionConfig{Secret: "a-different-secret", ExpirationHours: 2})
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token signature")
}

func TestTokenService_ValidateToken_Invalid(t *testing.T) {
	service := setupTestTokenService(t, 2)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two parts", "abc.def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenService_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	service := setupTestTokenService(t, 2)

	claims := &Claims{
		SessionID: "session-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	assert.Error(t, err)
}

func TestTokenService_ValidateToken_MissingSession(t *testing.T) {
	service := setupTestTokenService(t, 2)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session ID")
}

func TestTokenService_AsTokenValidator(t *testing.T) {
	service := setupTestTokenService(t, 2)
	token, err := service.GenerateToken("session-9")
	require.NoError(t, err)

	got, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-9", got.GetSessionID())

	_, err = service.AsTokenValidator().ValidateToken("bad")
	assert.Error(t, err)
}
