package security

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIdentityToken(t *testing.T) {
	secret := []byte("test-signing-secret")
	base64Secret := base64.StdEncoding.EncodeToString(secret)

	tokenStr, err := CreateIdentityToken(Identity{
		UniqueName: "operator",
		Email:      "ops@example.com",
		Role:       "admin",
	}, base64Secret, time.Hour)
	require.NoError(t, err)

	var claims IdentityClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "operator", claims.UniqueName)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "xero-automation", claims.Issuer)
}

func TestCreateIdentityTokenBadSecret(t *testing.T) {
	_, err := CreateIdentityToken(Identity{UniqueName: "x"}, "not base64!!!", time.Hour)
	assert.Error(t, err)
}
