package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"orgchat/internal/codec"
	"orgchat/internal/session"
)

type Credentials struct {
	APIKey   string
	Endpoint string
}

type CredentialService struct {
	tenants *TenantService
	users   UserStore
	orgs    OrganizationStore
	codec   codec.Codec
	log     *zap.Logger
}

func NewCredentialService(tenants *TenantService, users UserStore, orgs OrganizationStore, c codec.Codec, log *zap.Logger) *CredentialService {
	if c == nil {
		c = codec.NewCredentialCodec()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CredentialService{tenants: tenants, users: users, orgs: orgs, codec: c, log: log}
}

func (s *CredentialService) GetCredentials(ctx context.Context, p session.Principal) (*Credentials, error) {
	orgID, err := s.tenants.EnsureUserAndOrganization(ctx, p)
	if err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
	}
	if !org.HasCredentials() {
		return nil, ErrNotConfigured
	}

	apiKey, err := s.codec.Decode(org.EncryptedAzureAPIKey)
	if err != nil {
		s.log.Error("decode stored api key", zap.String("organization_id", orgID), zap.Error(err))
		return nil, fmt.Errorf("decode api key failed: %w", err)
	}
	endpoint, err := s.codec.Decode(org.EncryptedAzureEndpoint)
	if err != nil {
		s.log.Error("decode stored endpoint", zap.String("organization_id", orgID), zap.Error(err))
		return nil, fmt.Errorf("decode endpoint failed: %w", err)
	}
	return &Credentials{APIKey: apiKey, Endpoint: endpoint}, nil
}

// HasCredentials reports whether the principal's organization has both
// credential fields stored. Any failure reads as false.
func (s *CredentialService) HasCredentials(ctx context.Context, p session.Principal) bool {
	orgID, err := s.tenants.EnsureUserAndOrganization(ctx, p)
	if err != nil {
		return false
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil || org == nil {
		return false
	}
	return org.HasCredentials()
}

// SaveCredentials overwrites the organization's credentials. Only a user
// whose stored record is an admin may do so; the check comes before input
// validation.
func (s *CredentialService) SaveCredentials(ctx context.Context, p session.Principal, apiKey, endpoint string) error {
	orgID, err := s.tenants.EnsureUserAndOrganization(ctx, p)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if !user.IsAdmin {
		s.log.Warn("non-admin attempted to save credentials",
			zap.String("user_id", p.ID),
			zap.String("organization_id", orgID),
		)
		return ErrPermissionDenied
	}

	apiKey = strings.TrimSpace(apiKey)
	endpoint = strings.TrimSpace(endpoint)
	if apiKey == "" || endpoint == "" {
		return ErrInvalidInput
	}

	updated, err := s.orgs.UpdateCredentials(ctx, orgID, s.codec.Encode(apiKey), s.codec.Encode(endpoint), time.Now())
	if err != nil {
		s.log.Error("save credentials", zap.String("organization_id", orgID), zap.Error(err))
		return err
	}
	if !updated {
		return ErrNotFound
	}
	s.log.Info("credentials saved", zap.String("user_id", p.ID), zap.String("organization_id", orgID))
	return nil
}
