package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"orgchat/internal/bootstrap"
)

const healthTimeout = 2 * time.Second

var errNotConnected = errors.New("not connected")

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check reports store and broker reachability. Any failing dependency turns
// the response into 503.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := map[string]func(context.Context) error{
		"mysql":    h.pingMySQL,
		"redis":    h.pingRedis,
		"rabbitmq": h.pingRabbitMQ,
	}
	deps := make(map[string]dependencyStatus, len(checks))
	healthy := true
	for name, check := range checks {
		status := dependencyStatus{OK: true}
		if err := check(ctx); err != nil {
			status = dependencyStatus{Message: err.Error()}
			healthy = false
		}
		deps[name] = status
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	cfg := h.app.Config
	c.JSON(code, gin.H{
		"app":            cfg.App.Name,
		"env":            cfg.App.Env,
		"uptime_sec":     int(time.Since(h.app.StartedAt).Seconds()),
		"session_mode":   cfg.Auth.SessionMode,
		"auto_bootstrap": cfg.Tenant.AutoBootstrap,
		"dependencies":   deps,
	})
}

func (h *HealthHandler) pingMySQL(ctx context.Context) error {
	if h.app.MySQL == nil {
		return errNotConnected
	}
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (h *HealthHandler) pingRedis(ctx context.Context) error {
	if h.app.Redis == nil {
		return errNotConnected
	}
	return h.app.Redis.Ping(ctx).Err()
}

func (h *HealthHandler) pingRabbitMQ(context.Context) error {
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return errNotConnected
	}
	return nil
}
