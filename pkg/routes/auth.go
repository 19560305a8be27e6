package routes

import (
	"github.com/gin-gonic/gin"

	"gms_backend/pkg/controllers/auth"
)

// RegisterAuthRoutes registers all authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup, ctl *auth.Controller, guard gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", ctl.Login)
		authGroup.POST("/reset-password", ctl.ResetPassword)

		// Protected routes
		authGroup.POST("/logout", guard, ctl.Logout)
		authGroup.POST("/select-garage", guard, ctl.SelectActiveGarage)
	}
}
