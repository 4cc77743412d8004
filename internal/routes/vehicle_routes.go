package routes

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/controllers"
)

func VehicleRoutes(r *gin.RouterGroup, h *controllers.Handler) {
	vehicles := r.Group("/vehicles")
	{
		vehicles.GET("", h.ListVehicles)
		vehicles.POST("", h.CreateVehicle)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.PUT("/:id", h.UpdateVehicle)
		vehicles.DELETE("/:id", h.DeleteVehicle)
	}
}
