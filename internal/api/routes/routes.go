package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/smartbulldog-pro/TeamFlow/internal/api/handlers"
	"github.com/smartbulldog-pro/TeamFlow/internal/api/middleware"
	"github.com/smartbulldog-pro/TeamFlow/internal/config"
	"github.com/smartbulldog-pro/TeamFlow/internal/realtime"
	"github.com/smartbulldog-pro/TeamFlow/pkg/metrics"
)

// NewRouter assembles the relay's HTTP surface: the WebSocket endpoint plus
// health, stats and metrics.
func NewRouter(cfg *config.Config, hub *realtime.Hub) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	wsHandler := handlers.NewWSHandler(hub)
	statusHandler := handlers.NewStatusHandler(hub)

	router.GET("/ws", middleware.WSIdentity(cfg.JWTSecret), wsHandler.HandleWebSocket)
	router.GET("/health", statusHandler.Health)
	router.GET("/stats", statusHandler.Stats)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}
