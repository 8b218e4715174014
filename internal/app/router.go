package app

import (
	"github.com/gin-gonic/gin"

	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowedOrigins:       cfg.AllowedOrigins,
		QuestionnaireHandler: handlerset.Questionnaire,
	})
}
