package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/pkg/logger"
)

// Recovery returns a gin middleware that turns handler panics into 500 responses.
// Panics also go to the error event log next to the archiver's own failures;
// events may be nil when no logs directory is configured.
func Recovery(log *zap.Logger, events *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("error", r),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("route", c.FullPath()),
				zap.String("client_ip", c.ClientIP()),
			}
			log.Error("Panic recovered in API handler", append(fields, zap.Stack("stack"))...)
			if events != nil {
				events.LogAppError("Panic recovered in API handler", fields...)
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}()
		c.Next()
	}
}
