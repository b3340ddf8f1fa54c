package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orgchat/internal/app"
	"orgchat/internal/transport/http/response"
)

type AdminHandler struct {
	credentials *app.CredentialService
	admin       *app.AdminService
	log         *zap.Logger
}

type SaveCredentialsRequest struct {
	APIKey   string `json:"apiKey"`
	Endpoint string `json:"endpoint"`
}

type InviteCoworkerRequest struct {
	UserID string `json:"userId" binding:"max=128"`
	Email  string `json:"email" binding:"max=255"`
	Name   string `json:"name" binding:"max=255"`
}

func NewAdminHandler(credentials *app.CredentialService, admin *app.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{credentials: credentials, admin: admin, log: log}
}

func (h *AdminHandler) CredentialStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{"configured": h.credentials.HasCredentials(c.Request.Context(), p)})
}

func (h *AdminHandler) SaveCredentials(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req SaveCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.credentials.SaveCredentials(c.Request.Context(), p, req.APIKey, req.Endpoint); err != nil {
		respondError(c, h.log, "save credentials", err)
		return
	}
	response.OK(c, gin.H{"configured": true})
}

func (h *AdminHandler) ListCoworkers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	users, err := h.admin.ListCoworkers(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, "list coworkers", err)
		return
	}
	response.OK(c, users)
}

func (h *AdminHandler) InviteCoworker(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req InviteCoworkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.admin.InviteCoworker(c.Request.Context(), p, app.InviteCoworkerInput{
		UserID: req.UserID,
		Email:  req.Email,
		Name:   req.Name,
	})
	if err != nil {
		respondError(c, h.log, "invite coworker", err)
		return
	}
	response.OK(c, user)
}
