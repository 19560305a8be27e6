package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gms_backend/pkg/utils"
)

// MobileTokenGuard authenticates mobile API requests from the bearer token
func MobileTokenGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Access denied. No token provided.",
			})
			c.Abort()
			return
		}

		claims, err := utils.VerifyMobileToken(token)
		if err != nil {
			message := "Invalid token."
			if errors.Is(err, utils.ErrTokenExpired) {
				message = "Token expired."
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": message,
			})
			c.Abort()
			return
		}

		c.Set("mobileClaims", claims)
		c.Next()
	}
}
