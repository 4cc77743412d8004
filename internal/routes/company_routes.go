package routes

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/controllers"
)

func CompanyRoutes(r *gin.RouterGroup, h *controllers.Handler) {
	r.GET("/company", h.GetCompany)
	r.PUT("/company", h.UpdateCompany)
}
