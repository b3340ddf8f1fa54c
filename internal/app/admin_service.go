package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"orgchat/internal/model"
	"orgchat/internal/session"
)

type InviteCoworkerInput struct {
	UserID string
	Email  string
	Name   string
}

type AdminService struct {
	tenants *TenantService
	users   UserStore
	log     *zap.Logger
}

func NewAdminService(tenants *TenantService, users UserStore, log *zap.Logger) *AdminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{tenants: tenants, users: users, log: log}
}

// InviteCoworker adds a coworker to the acting admin's organization.
func (s *AdminService) InviteCoworker(ctx context.Context, p session.Principal, input InviteCoworkerInput) (*model.User, error) {
	orgID, err := s.tenants.EnsureUserAndOrganization(ctx, p)
	if err != nil {
		return nil, err
	}

	admin, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrNotFound
	}
	if !admin.IsAdmin {
		return nil, ErrPermissionDenied
	}

	userID := strings.TrimSpace(input.UserID)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if userID == "" || email == "" {
		return nil, ErrInvalidInput
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = emailLocalPart(email)
	}
	now := time.Now()
	coworker := &model.User{
		ID:             userID,
		Email:          email,
		Name:           name,
		IsAdmin:        false,
		Role:           model.RoleCoworker,
		OrganizationID: orgID,
		InvitedBy:      p.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := s.users.CreateIfAbsent(ctx, coworker)
	if err != nil {
		s.log.Error("invite coworker",
			zap.String("user_id", p.ID),
			zap.String("organization_id", orgID),
			zap.Error(err),
		)
		return nil, err
	}
	if !created {
		return nil, ErrUserExists
	}
	s.log.Info("coworker invited",
		zap.String("user_id", p.ID),
		zap.String("coworker_id", userID),
		zap.String("organization_id", orgID),
	)
	return coworker, nil
}

func (s *AdminService) ListCoworkers(ctx context.Context, p session.Principal) ([]model.User, error) {
	orgID, err := s.tenants.EnsureUserAndOrganization(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.users.ListByOrganizationAndRole(ctx, orgID, model.RoleCoworker)
}
