package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"orgchat/internal/ai"
	appsvc "orgchat/internal/app"
	"orgchat/internal/cache"
	"orgchat/internal/codec"
	"orgchat/internal/config"
	"orgchat/internal/logger"
	"orgchat/internal/model"
	mysqlClient "orgchat/internal/platform/mysql"
	rabbitmqClient "orgchat/internal/platform/rabbitmq"
	redisClient "orgchat/internal/platform/redis"
	"orgchat/internal/repository"
	"orgchat/internal/session"
	"orgchat/internal/worker"
)

// SessionSyncPublisher hands sign-in events to the background worker.
type SessionSyncPublisher interface {
	Publish(ctx context.Context, event rabbitmqClient.SessionSyncEvent) error
}

type App struct {
	Config *config.Config
	Log    *zap.Logger
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	SessionSyncWorker *worker.SessionSyncWorker
	SessionSync       SessionSyncPublisher

	Sessions    *session.Manager
	Tenants     *appsvc.TenantService
	Credentials *appsvc.CredentialService
	Chat        *appsvc.ChatService
	Admin       *appsvc.AdminService

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), logger.NewGormLogger(log, gormlogger.Warn))
	if err != nil {
		return nil, err
	}
	if err := Migrate(mysqlDB); err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:      cfg,
		Log:         log,
		MySQL:       mysqlDB,
		Redis:       redisCli,
		MQConn:      mqConn,
		SessionSync: rabbitmqClient.NewSessionSyncPublisher(mqConn, cfg.RabbitMQ.SessionSyncQueue),
		StartedAt:   time.Now(),
	}
	if err := Wire(a, cache.NewRevocationCache(redisCli)); err != nil {
		return nil, err
	}

	a.SessionSyncWorker = worker.NewSessionSyncWorker(mqConn, a.Tenants, cfg.RabbitMQ.SessionSyncQueue, log)
	if err := a.SessionSyncWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start session sync worker failed: %w", err)
	}
	return a, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Organization{}, &model.Conversation{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

// Wire builds the session manager and services on top of a.MySQL.
func Wire(a *App, revocations session.Revocations) error {
	cfg := a.Config
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}

	var store session.Store
	switch cfg.Auth.SessionMode {
	case config.SessionModeSigned:
		store = session.NewSignedStore(cfg.Auth.SessionSecret, session.ClampTTL(cfg.SessionTTL()), revocations)
	default:
		a.Log.Warn("session cookies are unsigned; set auth.session_mode = \"signed\" to verify them")
		store = session.NewPlainStore()
	}
	a.Sessions = session.NewManager(store, cfg.SessionTTL(), cfg.IsProduction())

	credentialCodec, err := newCredentialCodec(cfg)
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(a.MySQL)
	orgs := repository.NewOrganizationRepository(a.MySQL)
	conversations := repository.NewConversationRepository(a.MySQL)

	a.Tenants = appsvc.NewTenantService(users, orgs, appsvc.TenantOptions{
		AutoBootstrap: cfg.Tenant.AutoBootstrap,
		DebugEnabled:  cfg.Debug.Enabled,
	}, a.Log.Named("tenant"))
	a.Credentials = appsvc.NewCredentialService(a.Tenants, users, orgs, credentialCodec, a.Log.Named("credentials"))
	a.Chat = appsvc.NewChatService(
		a.Credentials,
		ai.NewAzureClient(nil, a.Log.Named("azure")),
		appsvc.NewConversationStore(conversations, codec.NewMessageCodec()),
		a.Log.Named("chat"),
	)
	a.Admin = appsvc.NewAdminService(a.Tenants, users, a.Log.Named("admin"))
	return nil
}

func newCredentialCodec(cfg *config.Config) (codec.Codec, error) {
	key, err := cfg.CredentialKey()
	if err != nil {
		return nil, err
	}
	if key == nil {
		return codec.NewCredentialCodec(), nil
	}
	sealed, err := codec.NewSealedCredentialCodec(key)
	if err != nil {
		return nil, fmt.Errorf("build credential codec failed: %w", err)
	}
	return sealed, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.SessionSyncWorker != nil {
		a.SessionSyncWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
