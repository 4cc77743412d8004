package routes

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/controllers"
)

func ServiceRoutes(r *gin.RouterGroup, h *controllers.Handler) {
	services := r.Group("/services")
	{
		services.GET("", h.ListServices)
		services.POST("", h.CreateService)
		services.GET("/:id", h.GetService)
		services.PUT("/:id", h.UpdateService)
		services.GET("/:id/fuec", h.DownloadFUEC)
	}
}
