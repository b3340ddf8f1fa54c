package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"orgchat/internal/codec"
	"orgchat/internal/model"
	"orgchat/internal/repository"
)

type testEnv struct {
	db            *gorm.DB
	users         *repository.UserRepository
	orgs          *repository.OrganizationRepository
	conversations *repository.ConversationRepository
	tenants       *TenantService
	credentials   *CredentialService
	store         *ConversationStore
	chat          *ChatService
	admin         *AdminService
	completer     *fakeCompleter
}

func newTestEnv(t *testing.T, opts TenantOptions) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Organization{}, &model.Conversation{}))

	log := zaptest.NewLogger(t)
	env := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		orgs:          repository.NewOrganizationRepository(db),
		conversations: repository.NewConversationRepository(db),
		completer:     &fakeCompleter{answer: "42"},
	}
	env.tenants = NewTenantService(env.users, env.orgs, opts, log)
	env.credentials = NewCredentialService(env.tenants, env.users, env.orgs, codec.NewCredentialCodec(), log)
	env.store = NewConversationStore(env.conversations, codec.NewMessageCodec())
	env.chat = NewChatService(env.credentials, env.completer, env.store, log)
	env.admin = NewAdminService(env.tenants, env.users, log)
	return env
}

type fakeCompleter struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  []completionCall
}

type completionCall struct {
	Message  string
	APIKey   string
	Endpoint string
}

func (f *fakeCompleter) Complete(_ context.Context, message, apiKey, endpoint string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, completionCall{Message: message, APIKey: apiKey, Endpoint: endpoint})
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

var errStoreDown = errors.New("store unavailable")

// brokenUsers fails every call.
type brokenUsers struct {
	UserStore
}

func (brokenUsers) GetByID(context.Context, string) (*model.User, error) {
	return nil, errStoreDown
}

// lateUsers hides the first lookup of id, as if another request inserted
// the row right after it was read.
type lateUsers struct {
	UserStore
	id     string
	hidden bool
}

func (l *lateUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == l.id && !l.hidden {
		l.hidden = true
		return nil, nil
	}
	return l.UserStore.GetByID(ctx, id)
}
