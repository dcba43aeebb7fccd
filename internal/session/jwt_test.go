package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, secret, issuer string, claims map[string]any) string {
	t.Helper()

	builder := jwt.NewBuilder().
		Issuer(issuer).
		JwtID(uuid.New().String()).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour))
	for k, v := range claims {
		builder = builder.Claim(k, v)
	}
	token, err := builder.Build()
	require.NoError(t, err)

	key, err := jwk.FromRaw([]byte(secret))
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, key))
	require.NoError(t, err)
	return string(signed)
}

func TestVerifier_Verify(t *testing.T) {
	verifier, err := NewVerifier([]byte("test-secret-key"), "jobdeck")
	require.NoError(t, err)

	userID := uuid.New()
	token := signTestToken(t, "test-secret-key", "jobdeck", map[string]any{
		"user_id":      userID.String(),
		"email":        "admin@jobdeck.io",
		"role_type":    "super_admin",
		"is_staff":     true,
		"is_superuser": true,
	})

	claims, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.TokenID)
	assert.Equal(t, userID, claims.Principal.ID)
	assert.Equal(t, "admin@jobdeck.io", claims.Principal.Email)
	assert.Equal(t, "super_admin", claims.Principal.RoleType)
	assert.True(t, claims.Principal.IsStaff)
	assert.True(t, claims.Principal.IsSuperuser)
}

func TestVerifier_Verify_WrongSecret(t *testing.T) {
	verifier, err := NewVerifier([]byte("secret-1"), "jobdeck")
	require.NoError(t, err)

	token := signTestToken(t, "secret-2", "jobdeck", map[string]any{
		"user_id": uuid.New().String(),
	})

	_, err = verifier.Verify(context.Background(), token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")
}

func TestVerifier_Verify_WrongIssuer(t *testing.T) {
	verifier, err := NewVerifier([]byte("test-secret-key"), "jobdeck")
	require.NoError(t, err)

	token := signTestToken(t, "test-secret-key", "someone-else", map[string]any{
		"user_id": uuid.New().String(),
	})

	_, err = verifier.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifier_Verify_MissingUserID(t *testing.T) {
	verifier, err := NewVerifier([]byte("test-secret-key"), "jobdeck")
	require.NoError(t, err)

	token := signTestToken(t, "test-secret-key", "jobdeck", map[string]any{
		"email": "admin@jobdeck.io",
	})

	_, err = verifier.Verify(context.Background(), token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "user_id claim not found")
}

func TestVerifier_Verify_GarbageToken(t *testing.T) {
	verifier, err := NewVerifier([]byte("test-secret-key"), "jobdeck")
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), "not-a-token")
	assert.Error(t, err)
}
