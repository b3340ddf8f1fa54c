package http

import (
	"path/filepath"

	"github.com/gin-gonic/gin"

	"orgchat/internal/bootstrap"
	"orgchat/internal/logger"
	"orgchat/internal/transport/http/handler"
	"orgchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(logger.GinMiddleware(app.Log), gin.Recovery())
	router.Use(middleware.RouteGuard(app.Sessions))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	page := func(name string) string {
		return filepath.Join(app.Config.App.StaticDir, name)
	}
	router.StaticFile("/", page("index.html"))
	router.StaticFile("/app.js", page("app.js"))
	router.StaticFile("/login", page("login.html"))
	router.StaticFile("/register", page("register.html"))
	router.StaticFile("/chat", page("chat.html"))
	router.GET("/chat/:id", func(c *gin.Context) { c.File(page("chat.html")) })
	router.StaticFile("/admin", page("admin.html"))
	router.StaticFile("/debug", page("debug.html"))

	var sync handler.SessionSyncPublisher
	if app.SessionSync != nil {
		sync = app.SessionSync
	}
	authHandler := handler.NewAuthHandler(app.Sessions, app.Tenants, sync, app.Log.Named("http.auth"))
	chatHandler := handler.NewChatHandler(app.Chat, app.Log.Named("http.chat"))
	adminHandler := handler.NewAdminHandler(app.Credentials, app.Admin, app.Log.Named("http.admin"))
	debugHandler := handler.NewDebugHandler(app.Tenants, app.Log.Named("http.debug"))

	requireSession := middleware.RequireSession(app.Sessions)

	api := router.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.POST("/session", authHandler.CreateSession)
	authGroup.POST("/signout", authHandler.SignOut)
	authGroup.POST("/register", requireSession, authHandler.Register)
	authGroup.GET("/me", requireSession, authHandler.Me)

	chatGroup := api.Group("/chat", requireSession)
	chatGroup.POST("/conversations", chatHandler.NewChat)
	chatGroup.GET("/conversations", chatHandler.ListConversations)
	chatGroup.GET("/conversations/:id", chatHandler.GetConversation)
	chatGroup.POST("/conversations/:id/messages", chatHandler.Chat)

	adminGroup := api.Group("/admin", requireSession)
	adminGroup.GET("/credentials", adminHandler.CredentialStatus)
	adminGroup.PUT("/credentials", adminHandler.SaveCredentials)
	adminGroup.GET("/coworkers", adminHandler.ListCoworkers)
	adminGroup.POST("/coworkers", adminHandler.InviteCoworker)

	debugGroup := api.Group("/debug", requireSession)
	debugGroup.POST("/repair", debugHandler.Repair)
	debugGroup.POST("/promote", debugHandler.Promote)
	debugGroup.GET("/report", debugHandler.Report)

	return router
}
