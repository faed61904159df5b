package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Публичная форма репортера: доступна без сессии
	api.POST("/report", h.submitReport)

	// Маршруты аутентификации
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.logout)
		authGroup.GET("/session", h.getSession)
	}

	// Панель наблюдения: только с валидной сессией
	dashboard := api.Group("/dashboard", h.SessionAuthMiddleware())
	{
		dashboard.GET("/state", h.getDashboardState)
		dashboard.GET("/ws", h.serveWS)
	}
	api.POST("/alerts/:id/resolve", h.SessionAuthMiddleware(), h.resolveAlert)

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
