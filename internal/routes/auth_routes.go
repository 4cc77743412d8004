package routes

import (
	"github.com/gin-gonic/gin"

	"fleetops/internal/controllers"
)

func AuthRoutes(r *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	a := r.Group("/auth")
	{
		a.POST("/register", h.Register)
		a.POST("/verify", h.Verify)
		a.POST("/login", h.Login)
		a.POST("/password/forgot", h.RequestPasswordReset)
		a.POST("/password/reset", h.ConfirmPasswordReset)

		a.POST("/logout", auth, h.Logout)
		a.GET("/me", auth, h.Me)
	}
}
