package routes

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/controllers"
)

func PublicRoutes(r *gin.Engine, h *controllers.Handler) {
	r.POST("/contact", h.Contact)
}
