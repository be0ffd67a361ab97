package app

import (
	"interview_prep_backend/docs"
	"interview_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)
		api.GET("/topics", c.topic.ListTopics)
		api.POST("/generate-question", c.question.GenerateQuestion)
	}

	a.registerSessionRoutes(api, c)
	a.registerUserRoutes(api, c)
}

func (a *App) registerSessionRoutes(api *gin.RouterGroup, c *controllers) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", c.session.CreateSession)
		sessions.GET("/detail/:sessionId", c.session.GetSession)
		sessions.GET("/:userId", c.session.ListSessions)
		sessions.GET("/:userId/stats", c.session.GetStats)
		sessions.POST("/:sessionId/next-question", c.session.NextQuestion)
		sessions.PUT("/:sessionId/question", c.session.SubmitAnswer)
		sessions.PUT("/:sessionId/score", c.session.UpdateScore)
		sessions.DELETE("/:sessionId", c.session.DeleteSession)
	}
}

func (a *App) registerUserRoutes(api *gin.RouterGroup, c *controllers) {
	users := api.Group("/users")
	{
		users.POST("", c.profile.CreateProfile)
		users.GET("/:email", c.profile.GetProfile)
		users.PUT("/:id", c.profile.UpdateProfile)
		users.DELETE("/:id", c.profile.DeleteProfile)
	}
}
