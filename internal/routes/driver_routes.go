package routes

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/controllers"
)

func DriverRoutes(r *gin.RouterGroup, h *controllers.Handler) {
	drivers := r.Group("/drivers")
	{
		drivers.GET("", h.ListDrivers)
		drivers.POST("", h.CreateDriver)
		drivers.GET("/:id", h.GetDriver)
		drivers.PUT("/:id", h.UpdateDriver)
		drivers.DELETE("/:id", h.DeleteDriver)
	}
}
