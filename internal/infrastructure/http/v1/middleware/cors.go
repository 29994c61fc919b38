package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the host UI origins to call the API.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Accept",
			"Content-Type",
			"Origin",
			HeaderRequestID,
			HeaderTraceID,
			HeaderSessionID,
			HeaderUserID,
			HeaderUserRoles,
		},
		ExposeHeaders: []string{"Content-Length", HeaderRequestID, HeaderTraceID},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:8000", "http://127.0.0.1:8000"}
	}
	return cors.New(cfg)
}
