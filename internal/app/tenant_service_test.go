package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orgchat/internal/model"
	"orgchat/internal/session"
)

func TestEnsureUserAndOrganization_CreatesAdminTenant(t *testing.T) {
	env := newTestEnv(t, TenantOptions{AutoBootstrap: true})
	ctx := context.Background()
	p := session.Principal{ID: "u1", Email: "alice@example.com", Role: model.RoleCoworker}

	orgID, err := env.tenants.EnsureUserAndOrganization(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "u1", orgID)

	user, err := env.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Equal(t, "u1", user.OrganizationID)
	assert.Equal(t, "alice", user.Name)

	org, err := env.orgs.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, "alice's Organization", org.Name)
	assert.Equal(t, "u1", org.AdminID)
}

func TestEnsureUserAndOrganization_Idempotent(t *testing.T) {
	env := newTestEnv(t, TenantOptions{AutoBootstrap: true})
	ctx := context.Background()
	p := session.Principal{ID: "u1", Email: "alice@example.com"}

	for i := 0; i < 3; i++ {
		orgID, err := env.tenants.EnsureUserAndOrganization(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "u1", orgID)
	}

	ids, err := env.orgs.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
	total, err := env.users.CountByRole(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestEnsureUserAndOrganization_HealsPartialState(t *testing.T) {
	env := newTestEnv(t, TenantOptions{AutoBootstrap: true})
	ctx := context.Background()

	t.Run("user without organization id", func(t *testing.T) {
		require.NoError(t, env.users.Create(ctx, &model.User{ID: "u2", Email: "", Role: model.RoleCoworker}))

		orgID, err := env.tenants.EnsureUserAndOrganization(ctx, session.Principal{ID: "u2"})
		require.NoError(t, err)
		assert.Equal(t, "u2", orgID)

		user, err := env.users.GetByID(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, "u2", user.OrganizationID)
		assert.False(t, user.IsAdmin)

		org, err := env.orgs.GetByID(ctx, "u2")
		require.NoError(t, err)
		require.NotNil(t, org)
		assert.Equal(t, "User's Organization", org.Name)
	})

	t.Run("coworker keeps the admin organization", func(t *testing.T) {
		_, err := env.tenants.EnsureUserAndOrganization(ctx, session.Principal{ID: "boss", Email: "boss@example.com"})
		require.NoError(t, err)
		require.NoError(t, env.users.Create(ctx, &model.User{ID: "u3", Email: "carol@example.com", Role: model.RoleCoworker, OrganizationID: "boss"}))

		orgID, err := env.tenants.EnsureUserAndOrganization(ctx, session.Principal{ID: "u3", Email: "carol@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "boss", orgID)

		org, err := env.orgs.GetByID(ctx, "u3")
		require.NoError(t, err)
		assert.Nil(t, org)
	})
}

func TestEnsureUserAndOrganization_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty principal", func(t *testing.T) {
		env := newTestEnv(t, TenantOptions{AutoBootstrap: true})
		_, err := env.tenants.EnsureUserAndOrganization(ctx, session.Principal{})
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("auto bootstrap disabled", func(t *testing.T) {
		env := newTestEnv(t, TenantOptions{AutoBootstrap: false})
		_, err := env.tenants.EnsureUserAndOrganization(ctx, session.Principal{ID: "u1", Email: "a@b.c"})
		assert.ErrorIs(t, err, ErrNotFound)

		user, err := env.users.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := NewTenantService(brokenUsers{}, nil, TenantOptions{AutoBootstrap: true}, zap.NewNop())
		_, err := svc.EnsureUserAndOrganization(ctx, session.Principal{ID: "u1"})
		assert.ErrorIs(t, err, ErrBootstrap)
		assert.ErrorIs(t, err, errStoreDown)
	})
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, TenantOptions{AutoBootstrap: false})
	ctx := context.Background()
	p := session.Principal{ID: "u1", Email: "alice@example.com"}

	org, err := env.tenants.Register(ctx, p, "  Acme  ")
	require.NoError(t, err)
	assert.Equal(t, "u1", org.ID)
	assert.Equal(t, "Acme", org.Name)

	again, err := env.tenants.Register(ctx, p, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Acme", again.Name)

	orgID, err := env.tenants.EnsureUserAndOrganization(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "u1", orgID)
}

func TestDebugActions(t *testing.T) {
	ctx := context.Background()
	p := session.Principal{ID: "u1", Email: "alice@example.com"}

	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, TenantOptions{AutoBootstrap: true})
		_, err := env.tenants.Repair(ctx, p)
		assert.ErrorIs(t, err, ErrDebugDisabled)
		_, err = env.tenants.Promote(ctx, p)
		assert.ErrorIs(t, err, ErrDebugDisabled)
		_, err = env.tenants.Report(ctx)
		assert.ErrorIs(t, err, ErrDebugDisabled)
	})

	t.Run("repair promote report", func(t *testing.T) {
		env := newTestEnv(t, TenantOptions{AutoBootstrap: false, DebugEnabled: true})

		report, err := env.tenants.Repair(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "u1", report.OrganizationID)
		assert.True(t, report.CreatedUser)
		assert.True(t, report.CreatedOrganization)

		report, err = env.tenants.Repair(ctx, p)
		require.NoError(t, err)
		assert.False(t, report.CreatedUser)
		assert.False(t, report.CreatedOrganization)

		require.NoError(t, env.users.Create(ctx, &model.User{ID: "u2", Email: "bob@example.com", Role: model.RoleCoworker, OrganizationID: "ghost"}))
		user, err := env.tenants.Promote(ctx, session.Principal{ID: "u2"})
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
		assert.Equal(t, model.RoleAdmin, user.Role)

		_, err = env.tenants.Promote(ctx, session.Principal{ID: "missing"})
		assert.ErrorIs(t, err, ErrNotFound)

		stats, err := env.tenants.Report(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.Users)
		assert.EqualValues(t, 2, stats.Admins)
		assert.Equal(t, 1, stats.Organizations)
		assert.Equal(t, []string{"ghost"}, stats.MissingOrganizations)
	})
}

func TestEnsureUserAndOrganization_LosesInsertRace(t *testing.T) {
	env := newTestEnv(t, TenantOptions{AutoBootstrap: true})
	ctx := context.Background()
	require.NoError(t, env.users.Create(ctx, &model.User{ID: "u2", Email: "bob@example.com", Role: model.RoleCoworker, OrganizationID: "boss"}))

	svc := NewTenantService(&lateUsers{UserStore: env.users, id: "u2"}, env.orgs,
		TenantOptions{AutoBootstrap: true, DebugEnabled: true}, zap.NewNop())
	report, err := svc.Repair(ctx, session.Principal{ID: "u2", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.False(t, report.CreatedUser)
	assert.Equal(t, "boss", report.OrganizationID)

	stored, err := env.users.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, stored.IsAdmin)
	assert.Equal(t, model.RoleCoworker, stored.Role)
}
