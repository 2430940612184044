package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vinodyk/patient-appointments/handlers"
)

// RegisterChatRoutes registers the patient workflow endpoints.
func RegisterChatRoutes(r *gin.Engine, ch *handlers.ChatHandler, sh *handlers.SessionHandler) {
	api := r.Group("/api")
	{
		api.POST("/chat", ch.ChatHandler)
		api.GET("/session/:id", sh.GetSessionHandler)
		api.DELETE("/session/:id", sh.DeleteSessionHandler)
		api.GET("/agents/status", handlers.AgentsStatusHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// CORSMiddleware allows the web frontend to call the API from another
// origin.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
