package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotae-ai/kotae/internal/auth"
	"github.com/kotae-ai/kotae/internal/model"
)

func TestJWTIssueAndValidate(t *testing.T) {
	mgr, err := auth.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := mgr.IssueToken("alice", model.RoleUser)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	mgr, err := auth.NewJWTManager("secret-a", time.Hour)
	require.NoError(t, err)
	other, err := auth.NewJWTManager("secret-b", time.Hour)
	require.NoError(t, err)

	token, _, err := mgr.IssueToken("alice", model.RoleUser)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsExpired(t *testing.T) {
	mgr, err := auth.NewJWTManager("test-secret", -time.Minute)
	require.NoError(t, err)

	token, _, err := mgr.IssueToken("alice", model.RoleUser)
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsUnsignedAlg(t *testing.T) {
	mgr, err := auth.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    auth.Issuer,
			Audience:  jwt.ClaimStrings{auth.Issuer},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "alice",
		Role:   model.RoleAdmin,
	})
	tokenStr, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = mgr.ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestJWTRejectsForeignIssuer(t *testing.T) {
	mgr, err := auth.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "somewhere-else",
			Audience:  jwt.ClaimStrings{auth.Issuer},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "alice",
		Role:   model.RoleUser,
	})
	tokenStr, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = mgr.ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestJWTRejectsUnknownRole(t *testing.T) {
	mgr, err := auth.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	_, _, err = mgr.IssueToken("alice", model.Role("superuser"))
	assert.Error(t, err)
}
