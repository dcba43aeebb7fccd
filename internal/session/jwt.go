package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier validates session tokens minted by the identity provider. This
// service never issues tokens; it only reads them.
type Verifier struct {
	signingKey jwk.Key
	issuer     string
}

// Claims is the verified content of a session token.
type Claims struct {
	TokenID   string
	Principal identity.Principal
}

func NewVerifier(signingKey []byte, issuer string) (*Verifier, error) {
	key, err := jwk.FromRaw(signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK: %w", err)
	}

	if err := key.Set(jwk.AlgorithmKey, jwa.HS256); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}

	return &Verifier{
		signingKey: key,
		issuer:     issuer,
	}, nil
}

func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	parsedToken, err := jwt.Parse([]byte(tokenString), jwt.WithKey(jwa.HS256, v.signingKey), jwt.WithIssuer(v.issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if err := jwt.Validate(parsedToken); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	userIDStr, ok := parsedToken.Get("user_id")
	if !ok {
		return nil, fmt.Errorf("user_id claim not found")
	}
	userID, err := uuid.Parse(stringClaim(userIDStr))
	if err != nil {
		return nil, fmt.Errorf("invalid user_id format: %w", err)
	}

	principal := identity.Principal{ID: userID}
	if v, ok := parsedToken.Get("email"); ok {
		principal.Email = stringClaim(v)
	}
	if v, ok := parsedToken.Get("role_type"); ok {
		principal.RoleType = stringClaim(v)
	}
	if v, ok := parsedToken.Get("is_staff"); ok {
		principal.IsStaff = boolClaim(v)
	}
	if v, ok := parsedToken.Get("is_superuser"); ok {
		principal.IsSuperuser = boolClaim(v)
	}

	return &Claims{
		TokenID:   parsedToken.JwtID(),
		Principal: principal,
	}, nil
}

func stringClaim(v any) string {
	s, _ := v.(string)
	return s
}

func boolClaim(v any) bool {
	b, _ := v.(bool)
	return b
}
