package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orgchat/internal/logger"
	"orgchat/internal/session"
	"orgchat/internal/transport/http/response"
)

const (
	ContextPrincipalKey = "principal"
	ContextUserIDKey    = "user_id"
)

// RequireSession rejects API calls without a decodable session cookie.
func RequireSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := sessions.Principal(c)
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("reject session cookie", zap.Error(err))
		}
		if err != nil || p == nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "not authenticated")
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, *p)
		c.Set(ContextUserIDKey, p.ID)
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (session.Principal, bool) {
	v, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return session.Principal{}, false
	}
	p, ok := v.(session.Principal)
	return p, ok
}
