package router

import (
	"github.com/labstack/echo/v4"

	"dinehub/internal/adapter/api/handler"
	"dinehub/internal/adapter/api/middleware"
)

// SetupSupportChatRouter wires the customer-facing and admin-facing support
// chat routes.
func SetupSupportChatRouter(e *echo.Echo, supportChatHandler *handler.SupportChatHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	sessions := e.Group("/v1/support/sessions")
	sessions.Use(authMiddleware.Authenticate)

	sessions.POST("", supportChatHandler.OpenSession)
	sessions.GET("", supportChatHandler.ListSessions)
	sessions.GET("/:id", supportChatHandler.GetSession)
	sessions.POST("/:id/messages", supportChatHandler.AppendMessage)
	sessions.PUT("/:id/read", supportChatHandler.MarkRead)

	adminSessions := e.Group("/v1/admin/support/sessions")
	adminSessions.Use(authMiddleware.Authenticate)
	adminSessions.Use(adminMiddleware.AdminOnly)

	adminSessions.GET("", supportChatHandler.AdminListSessions)
	adminSessions.GET("/:id", supportChatHandler.AdminGetSession)
	adminSessions.POST("/:id/messages", supportChatHandler.AdminAppendMessage)
	adminSessions.PUT("/:id/read", supportChatHandler.AdminMarkRead)
	adminSessions.PUT("/:id/resolve", supportChatHandler.ResolveSession)
}
