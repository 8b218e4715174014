package app

import (
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/handlers"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/middleware"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
)

type Handlers struct {
	Questionnaire *handlers.QuestionnaireHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, reposet Repos, sessions *middleware.Sessions) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Questionnaire: handlers.NewQuestionnaireHandler(
			log,
			sessions,
			serviceset.Eligibility,
			serviceset.Report,
			reposet.Submission,
		),
	}
}
