package app

import (
	"gorm.io/gorm"

	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/services"
)

type Services struct {
	Eligibility services.EligibilityService
	Report      services.ReportService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")

	eligibility := services.NewEligibilityService(
		db, log,
		reposet.Submission,
		clients.MailerLite,
		clients.Account,
		services.EligibilityConfig{
			SiteBaseURL:   cfg.SiteBaseURL,
			DefaultModule: cfg.DefaultModule,
		},
	)

	report := services.NewReportService(log, clients.OpenAI, services.ReportConfig{
		IntroCTAHTML: cfg.IntroCTAHTML,
	})

	return Services{
		Eligibility: eligibility,
		Report:      report,
	}
}
