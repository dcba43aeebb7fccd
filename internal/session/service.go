package session

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTokenInvalid = errors.New("invalid or expired session token")
	ErrTokenRevoked = errors.New("session has been revoked")
)

// Service verifies a bearer token and checks the revocation denylist.
type Service struct {
	verifier *Verifier
	store    RevocationStore
}

func NewService(verifier *Verifier, store RevocationStore) *Service {
	return &Service{
		verifier: verifier,
		store:    store,
	}
}

// Authenticate resolves a raw bearer token into verified claims. A store
// failure counts as a failed check: an unconfirmable session is not a session.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if s.store != nil && claims.TokenID != "" {
		revoked, err := s.store.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, fmt.Errorf("checking session revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}
