package app

import (
	"gorm.io/gorm"

	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/repos"
)

type Repos struct {
	Submission repos.SubmissionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Submission: repos.NewSubmissionRepo(db, log),
	}
}
