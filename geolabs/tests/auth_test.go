package tests

import (
	"testing"
	"time"

	"geolabs_api/geolabs/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenLifetime(t *testing.T) {
	assert.Equal(t, 300*time.Second, auth.TokenLifetime)
}

// signToken mints a token with the test secret outside of the login flow, so
// expiry behavior can be checked without waiting out the lifetime.
func signToken(t *testing.T, userId string, isAdmin bool, expiresIn time.Duration) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userId,
		"is_admin": isAdmin,
		"jti":      uuid.NewString(),
		"exp":      time.Now().Add(expiresIn).Unix(),
	})

	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestExpiredTokenIsRejected(t *testing.T) {
	env := setupTestEnv(t)

	company, err := env.newCompany("company1")
	require.NoError(t, err)

	c := env.newClient()
	c.authToken = signToken(t, "1", true, -time.Minute)

	err = c.deleteCompany(company.Id)
	assert.ErrorIs(t, err, ErrUnauthorized)

	c.authToken = signToken(t, "1", true, time.Minute)

	err = c.deleteCompany(company.Id)
	assert.NoError(t, err)
}

func TestMissingAndMalformedTokens(t *testing.T) {
	env := setupTestEnv(t)

	company, err := env.newCompany("company1")
	require.NoError(t, err)

	c := env.newClient()

	err = c.deleteCompany(company.Id)
	assert.ErrorIs(t, err, ErrUnauthorized, "missing token")

	c.authToken = "not-a-jwt"
	err = c.deleteCompany(company.Id)
	assert.ErrorIs(t, err, ErrUnauthorized, "malformed token")

	// Tokens signed with a different secret are rejected.
	otherSecret := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "is_admin": true, "exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := otherSecret.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	c.authToken = signed
	err = c.deleteCompany(company.Id)
	assert.ErrorIs(t, err, ErrUnauthorized, "wrong signature")
}

func TestAdminClaimGatesMutations(t *testing.T) {
	env := setupTestEnv(t)

	company, err := env.newCompany("company1")
	require.NoError(t, err)

	c := env.newClient()

	// Valid token without the admin claim set.
	c.authToken = signToken(t, "1", false, time.Minute)
	err = c.deleteCompany(company.Id)
	assert.ErrorIs(t, err, ErrForbidden)
}
