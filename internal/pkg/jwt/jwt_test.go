package jwt_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebeauty-client/internal/domain/auth"
	"ebeauty-client/internal/pkg/jwt"
)

func newManager(t *testing.T, ttl time.Duration) *jwt.Manager {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return jwt.Build(jwt.Config{Issuer: "ebeauty-sandbox", Audience: "ebeauty-app", TTL: ttl}, priv, &priv.PublicKey)
}

func TestGenerateAndVerify(t *testing.T) {
	m := newManager(t, time.Hour)
	user := auth.UserRecord{ID: "42", Email: "artist@test.com", Role: auth.RoleArtist}

	token, jti, err := m.Generator.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := m.Verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID())
	assert.Equal(t, "artist", claims.Role)
	assert.Equal(t, jti, claims.ID)
	assert.True(t, claims.HasRole("client", "artist"))
	assert.False(t, claims.HasRole("admin"))
}

func TestVerify_RejectsForeignIssuer(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	issuer := jwt.Build(jwt.Config{Issuer: "someone-else", Audience: "ebeauty-app", TTL: time.Hour}, priv, &priv.PublicKey)
	verifier := jwt.NewVerifier(&priv.PublicKey, "ebeauty-sandbox", "ebeauty-app")

	token, _, err := issuer.Generator.GenerateAccessToken(auth.UserRecord{ID: "1", Role: auth.RoleClient})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	m := newManager(t, time.Minute)
	token, _, err := m.Generator.GenerateAccessToken(auth.UserRecord{ID: "1", Role: auth.RoleClient})
	require.NoError(t, err)

	now := time.Now()
	assert.False(t, jwt.Expired(token, now))
	assert.True(t, jwt.Expired(token, now.Add(2*time.Minute)))

	// opaque tokens carry no expiry information
	assert.False(t, jwt.Expired("tok1", now))
	assert.False(t, jwt.Expired("fake-jwt-token-for-client", now.Add(24*time.Hour)))
}

func TestLoadAndBuild_EphemeralKey(t *testing.T) {
	m, err := jwt.LoadAndBuild(jwt.Config{Issuer: "i", Audience: "a", TTL: time.Hour})
	require.NoError(t, err)

	token, _, err := m.Generator.GenerateAccessToken(auth.UserRecord{ID: "3", Role: auth.RoleAdmin})
	require.NoError(t, err)
	_, err = m.Verifier.Verify(token)
	assert.NoError(t, err)
}
