package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orgchat/internal/ai"
	"orgchat/internal/app"
	"orgchat/internal/logger"
	"orgchat/internal/session"
	"orgchat/internal/transport/http/middleware"
	"orgchat/internal/transport/http/response"
)

// respondError logs err with request context and writes the reduced form.
func respondError(c *gin.Context, log *zap.Logger, action string, err error) {
	status, code, message := classify(err)

	_ = c.Error(err)
	fields := []zap.Field{
		zap.String("action", action),
		zap.Int("status", status),
		zap.Error(err),
	}
	if userID := c.GetString(middleware.ContextUserIDKey); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	reqLog := logger.WithContext(c.Request.Context(), log)
	if status >= http.StatusInternalServerError {
		reqLog.Error("action failed", fields...)
	} else {
		reqLog.Warn("action failed", fields...)
	}

	response.Error(c, status, code, message)
}

func classify(err error) (int, int, string) {
	var upstream *ai.UpstreamError
	switch {
	case errors.Is(err, app.ErrNotAuthenticated):
		return http.StatusUnauthorized, response.CodeUnauthorized, "not authenticated"
	case errors.Is(err, app.ErrInvalidInput):
		return http.StatusBadRequest, response.CodeBadRequest, err.Error()
	case errors.Is(err, app.ErrPermissionDenied):
		return http.StatusForbidden, response.CodeForbidden, "only administrators can do this"
	case errors.Is(err, app.ErrDebugDisabled):
		return http.StatusForbidden, response.CodeDebugDisabled, err.Error()
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound, response.CodeNotFound, "not found"
	case errors.Is(err, app.ErrNotConfigured):
		return http.StatusConflict, response.CodeNotConfigured, err.Error()
	case errors.Is(err, app.ErrUserExists):
		return http.StatusConflict, response.CodeUserExists, err.Error()
	case errors.Is(err, app.ErrDecode):
		return http.StatusInternalServerError, response.CodeDecodeFailed, "stored credentials could not be decoded"
	case errors.Is(err, app.ErrBootstrap):
		return http.StatusInternalServerError, response.CodeBootstrapFailed, "failed to set up your organization"
	case errors.Is(err, app.ErrMalformedMessages):
		return http.StatusInternalServerError, response.CodeMalformedMessages, err.Error()
	case errors.As(err, &upstream):
		return http.StatusBadGateway, response.CodeUpstreamError, upstream.Error()
	case errors.Is(err, ai.ErrInvalidResponseFormat):
		return http.StatusBadGateway, response.CodeInvalidUpstreamResponse, ai.ErrInvalidResponseFormat.Error()
	default:
		return http.StatusInternalServerError, response.CodeInternalServer, "internal server error"
	}
}

// principal reads what RequireSession stored; a missing value is answered
// with 401.
func principal(c *gin.Context) (p session.Principal, ok bool) {
	p, ok = middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "not authenticated")
	}
	return p, ok
}
