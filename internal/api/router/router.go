package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YakushevDanila/tanuki-bot3/internal/api/handler"
	"github.com/YakushevDanila/tanuki-bot3/internal/api/middleware"
)

// maxUpdateBody caps inbound update payloads.
const maxUpdateBody = 64 << 10 // 64KB

// Setup builds the gin engine for the chat webhook.
func Setup(updates *handler.UpdateHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.BodyLimit(maxUpdateBody))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/updates", updates.HandleUpdate)
	}

	return r
}
