package main

import (
	"log/slog"
	"net/http"

	"github.com/codewithme13/signai-server/internal/auth"
	"github.com/codewithme13/signai-server/internal/config"
	"github.com/codewithme13/signai-server/internal/gateway"
	"github.com/codewithme13/signai-server/internal/httpapi"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, h httpapi.Handlers, gw *gateway.Gateway, authManager *auth.Manager, rdb *redis.Client, log *slog.Logger) {
	// public
	r.GET("/", h.Status)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Signaling transport. The gateway authenticates before upgrading.
	r.GET("/ws", gw.Handle)

	// Uploaded photos are public by URL.
	r.Static("/uploads/profiles", cfg.Upload.Dir)

	api := r.Group("/api")
	api.Use(httpapi.RateLimit(rdb, log, cfg.Rate.APIMax, cfg.Rate.APIWindow))
	{
		api.POST("/auth/register", h.RegisterAccount)
		api.POST("/auth/login", h.Login)
		api.GET("/profile/photo/:userId", h.GetPhoto)

		protected := api.Group("")
		protected.Use(auth.RequireToken(authManager))
		{
			protected.GET("/users", h.OnlineUsers)
			protected.GET("/users/:userId", h.GetUser)
			protected.GET("/calls/history", h.CallHistory)
			protected.POST("/profile/photo", h.UploadPhoto)
			protected.DELETE("/profile/photo", h.DeletePhoto)
		}
	}
}
