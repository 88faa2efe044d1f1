package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/boardroom"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/decks"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/config"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/metrics"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server/middleware"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/server/respond"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/webhooks"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config           config.Config
	DecksHandler     *decks.Handler
	BoardroomHandler *boardroom.Handler
	WebhooksHandler  *webhooks.Handler
	RateLimit        *middleware.RateLimitConfig
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
	)
	if deps.RateLimit != nil {
		r.Use(middleware.RateLimit(*deps.RateLimit))
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.DecksHandler != nil {
		deps.DecksHandler.RegisterRoutes(api)
	}
	if deps.BoardroomHandler != nil {
		deps.BoardroomHandler.RegisterRoutes(api)
	}
	if deps.WebhooksHandler != nil {
		deps.WebhooksHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
