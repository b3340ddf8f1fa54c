package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"orgchat/internal/session"
)

var (
	protectedPagePrefixes = []string{"/chat", "/admin", "/debug"}
	authPagePrefixes      = []string{"/login", "/register"}
)

// RouteGuard redirects page requests on cookie presence alone: protected
// pages go to /login without a cookie, auth pages go to /chat with one.
func RouteGuard(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		_, hasSession := sessions.ReadValue(c)

		switch {
		case !hasSession && hasAnyPrefix(path, protectedPagePrefixes):
			c.Redirect(http.StatusTemporaryRedirect, "/login")
			c.Abort()
			return
		case hasSession && hasAnyPrefix(path, authPagePrefixes):
			c.Redirect(http.StatusTemporaryRedirect, "/chat")
			c.Abort()
			return
		}
		c.Next()
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
