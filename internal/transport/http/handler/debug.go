package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orgchat/internal/app"
	"orgchat/internal/transport/http/response"
)

type DebugHandler struct {
	tenants *app.TenantService
	log     *zap.Logger
}

func NewDebugHandler(tenants *app.TenantService, log *zap.Logger) *DebugHandler {
	return &DebugHandler{tenants: tenants, log: log}
}

func (h *DebugHandler) Repair(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	report, err := h.tenants.Repair(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, "debug repair", err)
		return
	}
	response.OK(c, report)
}

func (h *DebugHandler) Promote(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.tenants.Promote(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, "debug promote", err)
		return
	}
	response.OK(c, user)
}

func (h *DebugHandler) Report(c *gin.Context) {
	report, err := h.tenants.Report(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "debug report", err)
		return
	}
	response.OK(c, report)
}
