// Package session carries the authenticated principal in the "session"
// cookie.
//
// In plain mode the cookie is an unsigned JSON document and anyone able to
// write the browser's cookie jar can forge any principal, including
// isAdmin=true. Signed mode wraps the same claims in an HS256 token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"orgchat/internal/model"
)

const (
	ModePlain  = "plain"
	ModeSigned = "signed"

	// LegacyEmail is reported for cookies written before the JSON format,
	// which held nothing but the user id.
	LegacyEmail = "user@example.com"
)

var ErrInvalidSession = errors.New("invalid session")

// Principal is the identity and role claims for the current request.
type Principal struct {
	ID      string `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
}

// Store converts principals to cookie values and back.
type Store interface {
	Encode(ctx context.Context, p Principal) (string, error)
	// Decode returns nil, nil for an empty value.
	Decode(ctx context.Context, value string) (*Principal, error)
	// Revoke invalidates a value before its natural expiry where supported.
	Revoke(ctx context.Context, value string) error
}

// PlainStore writes the principal as JSON and also accepts the legacy
// raw-user-id format.
type PlainStore struct{}

func NewPlainStore() *PlainStore {
	return &PlainStore{}
}

func (PlainStore) Encode(_ context.Context, p Principal) (string, error) {
	return EncodePrincipal(p)
}

func (PlainStore) Decode(_ context.Context, value string) (*Principal, error) {
	return DecodeCookie(value)
}

func (PlainStore) Revoke(context.Context, string) error {
	return nil
}

func EncodePrincipal(p Principal) (string, error) {
	if strings.TrimSpace(p.ID) == "" {
		return "", ErrInvalidSession
	}
	if p.Role == "" {
		p.Role = model.RoleCoworker
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func DecodeCookie(value string) (*Principal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	var p Principal
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return &Principal{
			ID:    value,
			Email: LegacyEmail,
			Role:  model.RoleCoworker,
		}, nil
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrInvalidSession
	}
	if p.Role == "" {
		p.Role = model.RoleCoworker
	}
	return &p, nil
}
