package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orgchat/internal/app"
	"orgchat/internal/model"
	"orgchat/internal/platform/rabbitmq"
	"orgchat/internal/session"
	"orgchat/internal/transport/http/response"
)

const sessionSyncTimeout = 5 * time.Second

type SessionSyncPublisher interface {
	Publish(ctx context.Context, event rabbitmq.SessionSyncEvent) error
}

type AuthHandler struct {
	sessions *session.Manager
	tenants  *app.TenantService
	sync     SessionSyncPublisher
	log      *zap.Logger
}

type CreateSessionRequest struct {
	IDToken     string `json:"idToken"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type RegisterRequest struct {
	OrganizationName string `json:"organizationName" binding:"max=128"`
}

func NewAuthHandler(sessions *session.Manager, tenants *app.TenantService, sync SessionSyncPublisher, log *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, tenants: tenants, sync: sync, log: log}
}

// CreateSession writes the session cookie for an identity the external auth
// provider signed in. The id token is required but not verified here.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if strings.TrimSpace(req.IDToken) == "" || userID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "ID token and user ID required")
		return
	}

	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if name == "" {
		name = "User"
	}
	if email == "" {
		email = fmt.Sprintf("user-%s@temp.com", userID)
	}

	p := session.Principal{
		ID:      userID,
		Email:   email,
		Name:    name,
		Role:    model.RoleCoworker,
		IsAdmin: false,
	}
	if err := h.sessions.Write(c, p); err != nil {
		respondError(c, h.log, "create session", err)
		return
	}

	h.publishSessionSync(c.Request.Context(), p)
	h.log.Info("session created", zap.String("user_id", userID))
	response.OK(c, gin.H{"success": true})
}

// publishSessionSync fires and forgets; a failure never reaches the caller.
func (h *AuthHandler) publishSessionSync(ctx context.Context, p session.Principal) {
	if h.sync == nil {
		return
	}
	event := rabbitmq.SessionSyncEvent{UserID: p.ID, Email: p.Email, Name: p.Name}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionSyncTimeout)
		defer cancel()
		if err := h.sync.Publish(ctx, event); err != nil {
			h.log.Warn("publish session sync failed", zap.String("user_id", event.UserID), zap.Error(err))
		}
	}()
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.sessions.Clear(c); err != nil {
		h.log.Warn("revoke session failed", zap.Error(err))
	}
	response.OK(c, gin.H{"success": true})
}

// Register creates the caller's organization explicitly.
func (h *AuthHandler) Register(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req RegisterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	org, err := h.tenants.Register(c.Request.Context(), p, req.OrganizationName)
	if err != nil {
		respondError(c, h.log, "register", err)
		return
	}
	response.OK(c, gin.H{
		"organization": gin.H{
			"id":      org.ID,
			"name":    org.Name,
			"adminId": org.AdminID,
		},
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.tenants.CurrentUser(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, "current user", err)
		return
	}
	response.OK(c, gin.H{
		"principal": p,
		"user":      user,
	})
}
