package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orgchat/internal/model"
	"orgchat/internal/pkg/jwtutil"
)

// Revocations remembers token ids that were signed out before expiry.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SignedStore issues HS256 tokens and refuses anything it did not sign,
// including legacy and plain JSON cookies.
type SignedStore struct {
	secret      string
	ttl         time.Duration
	revocations Revocations
}

func NewSignedStore(secret string, ttl time.Duration, revocations Revocations) *SignedStore {
	return &SignedStore{
		secret:      secret,
		ttl:         ttl,
		revocations: revocations,
	}
}

func (s *SignedStore) Encode(_ context.Context, p Principal) (string, error) {
	if strings.TrimSpace(p.ID) == "" {
		return "", ErrInvalidSession
	}
	if p.Role == "" {
		p.Role = model.RoleCoworker
	}
	return jwtutil.GenerateToken(s.secret, s.ttl, jwtutil.Claims{
		UserID:  p.ID,
		Email:   p.Email,
		Name:    p.Name,
		Role:    p.Role,
		IsAdmin: p.IsAdmin,
	})
}

func (s *SignedStore) Decode(ctx context.Context, value string) (*Principal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	claims, err := jwtutil.ParseToken(s.secret, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if s.revocations != nil && claims.ID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check session revocation failed: %w", err)
		}
		if revoked {
			return nil, ErrInvalidSession
		}
	}
	role := claims.Role
	if role == "" {
		role = model.RoleCoworker
	}
	return &Principal{
		ID:      claims.UserID,
		Email:   claims.Email,
		Name:    claims.Name,
		Role:    role,
		IsAdmin: claims.IsAdmin,
	}, nil
}

// Revoke records the token id until the token would have expired anyway.
// Invalid or already expired tokens need no record.
func (s *SignedStore) Revoke(ctx context.Context, value string) error {
	if s.revocations == nil {
		return nil
	}
	claims, err := jwtutil.ParseToken(s.secret, strings.TrimSpace(value))
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, remaining)
}
