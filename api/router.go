package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/api/handlers"
	"github.com/Sateviss/youtube-archive/api/middleware"
	"github.com/Sateviss/youtube-archive/internal/domain"
	"github.com/Sateviss/youtube-archive/pkg/logger"
)

// SetupRouter sets up the read-only status API over the state repository.
// events receives recovered panics and may be nil.
func SetupRouter(repo domain.StateRepository, logsDir string, events *logger.MultiLogger, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log, events))

	healthHandler := handlers.NewHealthHandler(repo)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		channelHandler := handlers.NewChannelHandler(repo, log)
		v1.GET("/channels", channelHandler.ListChannels)
		v1.GET("/channels/*url", channelHandler.GetChannel)
		v1.GET("/stats", channelHandler.GetStats)

		logHandler := handlers.NewLogHandler(logsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
