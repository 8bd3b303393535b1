package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(planning *handlers.PlanningHandler, stock *handlers.StockHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	{
		api.GET("/technicians/:id/availability", planning.CheckAvailability)
		api.POST("/interventions/schedule", planning.ScheduleIntervention)
		api.POST("/interventions", planning.CreateIntervention)

		api.POST("/materials/:id/reserve", stock.Reserve)
		api.POST("/materials/:id/replenish", stock.Replenish)
		api.GET("/materials/:id/stock", stock.QueryStock)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
