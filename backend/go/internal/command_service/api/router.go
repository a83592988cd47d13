package api

import (
	"VoiceCalendarAI/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all routes of the command service.
func RegisterRoutes(router *gin.Engine, api *API, jwtSecret string, limiter ratelimiter.RateLimiter) {
	router.GET("/health", api.HealthHandler)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(limiter))
	v1.Use(AuthMiddleware(jwtSecret))
	{
		v1.POST("/interpret", api.InterpretHandler)

		commands := v1.Group("/commands")
		{
			commands.POST("", api.SubmitCommandHandler)
			commands.GET("", api.GetCommandsHandler)
			commands.GET("/:id", api.GetCommandHandler)
		}
	}

	ws := router.Group("/ws")
	ws.Use(AuthMiddleware(jwtSecret))
	{
		ws.GET("/subscribe", api.WebSocketHandler)
	}
}
