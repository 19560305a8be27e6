package routes

import (
	"github.com/gin-gonic/gin"

	"gms_backend/pkg/controllers/mobileapi"
	"gms_backend/pkg/middleware"
)

// RegisterMobileRoutes registers the subscriber-facing mobile API
func RegisterMobileRoutes(router *gin.RouterGroup, ctl *mobileapi.Controller) {
	mobile := router.Group("/mobile")
	{
		mobile.POST("/send-otp", ctl.SendOTP)
		mobile.POST("/verify-otp", ctl.VerifyOTP)

		// Token-protected routes
		profile := mobile.Group("/profile")
		profile.Use(middleware.MobileTokenGuard())
		{
			profile.GET("/", ctl.GetProfile)
			profile.PUT("/", ctl.UpdateProfile)
		}
	}
}
