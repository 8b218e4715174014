package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/handlers"
)

type RouterConfig struct {
  AllowedOrigins       []string
  QuestionnaireHandler *handlers.QuestionnaireHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins:     cfg.AllowedOrigins,
    AllowMethods:     []string{"GET", "POST", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  api := router.Group("/api")
  {
    api.POST("/subscriber/check", cfg.QuestionnaireHandler.CheckSubscriber)
    api.POST("/report/generate", cfg.QuestionnaireHandler.GenerateReport)
    api.POST("/report/followup", cfg.QuestionnaireHandler.GenerateFollowup)
  }

  return router
}
