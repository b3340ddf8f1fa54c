package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"orgchat/internal/model"
	"orgchat/internal/platform/rabbitmq"
	"orgchat/internal/session"
)

// TenantBootstrapper is satisfied by app.TenantService.
type TenantBootstrapper interface {
	EnsureUserAndOrganization(ctx context.Context, p session.Principal) (string, error)
}

// SessionSyncWorker bootstraps tenants for sign-in events off the request
// path. Failed events are logged and dropped.
type SessionSyncWorker struct {
	conn      *amqp.Connection
	tenants   TenantBootstrapper
	queueName string
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSessionSyncWorker(conn *amqp.Connection, tenants TenantBootstrapper, queueName string, log *zap.Logger) *SessionSyncWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionSyncWorker{
		conn:      conn,
		tenants:   tenants,
		queueName: queueName,
		log:       log.With(zap.String("worker", "session_sync"), zap.String("queue", queueName)),
	}
}

func (w *SessionSyncWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.Handle(workerCtx, d.Body); err != nil {
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.log.Info("worker started")
	return nil
}

// Handle processes one event body.
func (w *SessionSyncWorker) Handle(ctx context.Context, body []byte) error {
	var event rabbitmq.SessionSyncEvent
	if err := json.Unmarshal(body, &event); err != nil {
		w.log.Warn("decode session sync event failed", zap.Error(err))
		return err
	}
	if event.UserID == "" {
		w.log.Warn("session sync event without user id")
		return fmt.Errorf("session sync event without user id")
	}

	orgID, err := w.tenants.EnsureUserAndOrganization(ctx, session.Principal{
		ID:    event.UserID,
		Email: event.Email,
		Name:  event.Name,
		Role:  model.RoleCoworker,
	})
	if err != nil {
		w.log.Error("session sync failed", zap.String("user_id", event.UserID), zap.Error(err))
		return err
	}
	w.log.Debug("session synced", zap.String("user_id", event.UserID), zap.String("organization_id", orgID))
	return nil
}

func (w *SessionSyncWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
