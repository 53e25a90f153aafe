package app

import (
	"journey_backend/docs"
	"journey_backend/internal/middleware"
	"journey_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公开接口
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要登录的接口
	auth := router.Group("/api")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("/profile", c.auth.GetProfile)

		auth.POST("/journeys", c.journey.CreateJourney)
		auth.GET("/journeys", c.journey.ListJourneys)
		auth.GET("/journeys/:id", c.journey.GetJourney)
		auth.POST("/journeys/:id/retry", c.journey.RetryJourney)

		auth.GET("/journeys/:id/progress", c.progress.GetProgress)
		auth.POST("/journeys/:id/progress", c.progress.UpdateProgress)

		auth.GET("/resources/:id", c.resource.GetResource)
	}

	// 管理端接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/resources/:id/backfill", c.resource.BackfillContent)
		admin.GET("/resources/:id/raw", c.resource.GetRawHTML)
	}
}
