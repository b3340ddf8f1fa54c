package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"orgchat/internal/model"
	"orgchat/internal/session"
)

type TenantOptions struct {
	// AutoBootstrap creates a missing user as the admin of a fresh
	// organization. When false only Register creates tenants.
	AutoBootstrap bool
	DebugEnabled  bool
}

type TenantService struct {
	users UserStore
	orgs  OrganizationStore
	opts  TenantOptions
	log   *zap.Logger
}

// RepairReport describes the writes a bootstrap or repair pass performed.
type RepairReport struct {
	OrganizationID      string `json:"organizationId"`
	CreatedUser         bool   `json:"createdUser"`
	CreatedOrganization bool   `json:"createdOrganization"`
	LinkedOrganization  bool   `json:"linkedOrganization"`
}

type TenantReport struct {
	Users                int64    `json:"users"`
	Admins               int64    `json:"admins"`
	Organizations        int      `json:"organizations"`
	MissingOrganizations []string `json:"missingOrganizations"`
}

type ensureOptions struct {
	createUser bool
	orgName    string
}

func NewTenantService(users UserStore, orgs OrganizationStore, opts TenantOptions, log *zap.Logger) *TenantService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TenantService{users: users, orgs: orgs, opts: opts, log: log}
}

// EnsureUserAndOrganization guarantees the principal has a user record and
// that the user's organization exists, and returns the organization id. A
// consistent pair is only read.
func (s *TenantService) EnsureUserAndOrganization(ctx context.Context, p session.Principal) (string, error) {
	if strings.TrimSpace(p.ID) == "" {
		return "", ErrNotAuthenticated
	}
	report, err := s.ensure(ctx, p, ensureOptions{createUser: s.opts.AutoBootstrap})
	if err != nil {
		return "", err
	}
	return report.OrganizationID, nil
}

// CurrentUser returns the stored record behind the principal, or nil.
func (s *TenantService) CurrentUser(ctx context.Context, p session.Principal) (*model.User, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrNotAuthenticated
	}
	return s.users.GetByID(ctx, p.ID)
}

// Register is the explicit sign-up step: it makes the principal the admin of
// an organization keyed by the principal id. An existing pair is left as is.
func (s *TenantService) Register(ctx context.Context, p session.Principal, organizationName string) (*model.Organization, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrNotAuthenticated
	}
	report, err := s.ensure(ctx, p, ensureOptions{
		createUser: true,
		orgName:    strings.TrimSpace(organizationName),
	})
	if err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, report.OrganizationID)
	if err != nil {
		return nil, s.failed("load organization", err, p.ID, report.OrganizationID)
	}
	if org == nil {
		return nil, ErrNotFound
	}
	s.log.Info("tenant registered",
		zap.String("user_id", p.ID),
		zap.String("organization_id", org.ID),
		zap.Bool("created_user", report.CreatedUser),
		zap.Bool("created_organization", report.CreatedOrganization),
	)
	return org, nil
}

// Repair runs the self-healing pass regardless of AutoBootstrap.
func (s *TenantService) Repair(ctx context.Context, p session.Principal) (*RepairReport, error) {
	if !s.opts.DebugEnabled {
		return nil, ErrDebugDisabled
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrNotAuthenticated
	}
	report, err := s.ensure(ctx, p, ensureOptions{createUser: true})
	if err != nil {
		return nil, err
	}
	s.log.Warn("tenant repaired",
		zap.String("user_id", p.ID),
		zap.String("organization_id", report.OrganizationID),
		zap.Bool("created_user", report.CreatedUser),
		zap.Bool("created_organization", report.CreatedOrganization),
		zap.Bool("linked_organization", report.LinkedOrganization),
	)
	return report, nil
}

// Promote grants admin to the acting user.
func (s *TenantService) Promote(ctx context.Context, p session.Principal) (*model.User, error) {
	if !s.opts.DebugEnabled {
		return nil, ErrDebugDisabled
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrNotAuthenticated
	}

	user, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if err := s.users.Promote(ctx, p.ID); err != nil {
		s.log.Error("promote user", zap.String("user_id", p.ID), zap.Error(err))
		return nil, err
	}
	s.log.Warn("user promoted to admin", zap.String("user_id", p.ID))

	user.Role = model.RoleAdmin
	user.IsAdmin = true
	return user, nil
}

func (s *TenantService) Report(ctx context.Context) (*TenantReport, error) {
	if !s.opts.DebugEnabled {
		return nil, ErrDebugDisabled
	}

	users, err := s.users.CountByRole(ctx, "")
	if err != nil {
		return nil, err
	}
	admins, err := s.users.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	orgIDs, err := s.orgs.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	referenced, err := s.users.ListOrganizationIDs(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(orgIDs))
	for _, id := range orgIDs {
		known[id] = struct{}{}
	}
	missing := make([]string, 0)
	for _, id := range referenced {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}

	return &TenantReport{
		Users:                users,
		Admins:               admins,
		Organizations:        len(orgIDs),
		MissingOrganizations: missing,
	}, nil
}

// ensure performs the bootstrap steps in order. Each write is separately
// durable; a crash between steps leaves the later ones for the next call.
func (s *TenantService) ensure(ctx context.Context, p session.Principal, opts ensureOptions) (*RepairReport, error) {
	report := &RepairReport{}

	user, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, s.failed("load user", err, p.ID, "")
	}
	if user == nil {
		if !opts.createUser {
			s.log.Warn("user record missing and auto bootstrap disabled", zap.String("user_id", p.ID))
			return nil, ErrNotFound
		}
		now := time.Now()
		user = &model.User{
			ID:             p.ID,
			Email:          p.Email,
			Name:           emailLocalPart(p.Email),
			IsAdmin:        true,
			Role:           model.RoleAdmin,
			OrganizationID: p.ID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		created, err := s.users.CreateIfAbsent(ctx, user)
		if err != nil {
			return nil, s.failed("create user", err, p.ID, p.ID)
		}
		if created {
			report.CreatedUser = true
			s.log.Warn("created missing user as organization admin", zap.String("user_id", p.ID))
		} else {
			// a concurrent request inserted the row first
			user, err = s.users.GetByID(ctx, p.ID)
			if err != nil {
				return nil, s.failed("load user", err, p.ID, "")
			}
			if user == nil {
				return nil, ErrNotFound
			}
		}
	}

	orgID := user.OrganizationID
	if orgID == "" {
		orgID = p.ID
	}
	report.OrganizationID = orgID

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, s.failed("load organization", err, p.ID, orgID)
	}
	if org == nil {
		email := user.Email
		if email == "" {
			email = p.Email
		}
		name := opts.orgName
		if name == "" {
			name = emailLocalPart(email) + "'s Organization"
		}
		now := time.Now()
		org = &model.Organization{
			ID:          orgID,
			Name:        name,
			AdminID:     p.ID,
			CreatedAt:   now,
			LastUpdated: now,
		}
		if err := s.orgs.CreateIfAbsent(ctx, org); err != nil {
			return nil, s.failed("create organization", err, p.ID, orgID)
		}
		report.CreatedOrganization = true
		s.log.Info("created missing organization", zap.String("user_id", p.ID), zap.String("organization_id", orgID))
	}

	if user.OrganizationID == "" {
		if err := s.users.SetOrganizationID(ctx, p.ID, orgID); err != nil {
			return nil, s.failed("link user organization", err, p.ID, orgID)
		}
		report.LinkedOrganization = true
	}
	return report, nil
}

func (s *TenantService) failed(step string, err error, userID, orgID string) error {
	s.log.Error("tenant bootstrap",
		zap.String("step", step),
		zap.String("user_id", userID),
		zap.String("organization_id", orgID),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s failed: %w", ErrBootstrap, step, err)
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return "User"
	}
	return local
}
