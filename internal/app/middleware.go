package app

import (
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/middleware"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
)

func wireMiddleware(log *logger.Logger, cfg Config) *middleware.Sessions {
	log.Info("Wiring middleware...")
	return middleware.NewSessions(cfg.Cookies)
}
