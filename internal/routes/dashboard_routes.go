package routes

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/controllers"
)

func DashboardRoutes(r *gin.RouterGroup, h *controllers.Handler) {
	r.GET("/dashboard", h.Dashboard)
	r.GET("/expirations", h.ListExpirations)
}
