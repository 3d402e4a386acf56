// internal/middleware/cors.go
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func CORS(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Accept-Language", "Stripe-Signature"},
		ExposeHeaders:    []string{"X-Total-Count", "X-Limit", "X-Offset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// "*" may not be combined with explicit origins.
	for _, origin := range allowedOrigins {
		if origin == "*" {
			config.AllowOrigins = nil
			config.AllowAllOrigins = true
			config.AllowCredentials = false
			break
		}
	}

	return cors.New(config)
}
