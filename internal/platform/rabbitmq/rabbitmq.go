package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"orgchat/internal/config"
)

const declareTimeout = 3 * time.Second

// New dials the broker and declares the session sync queue so publishers
// and the worker can rely on it.
func New(ctx context.Context, cfg config.RabbitMQConfig) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	declareCtx, cancel := context.WithTimeout(ctx, declareTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := DeclareQueue(ch, cfg.SessionSyncQueue)
		done <- err
	}()

	select {
	case <-declareCtx.Done():
		_ = conn.Close()
		return nil, fmt.Errorf("declare rabbitmq queue timeout: %w", declareCtx.Err())
	case err := <-done:
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}
