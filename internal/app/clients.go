package app

import (
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/clients/account"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/clients/mailerlite"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/clients/openai"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
)

type Clients struct {
	OpenAI     openai.Client
	MailerLite mailerlite.Client
	Account    account.Client
}

func wireClients(log *logger.Logger) Clients {
	log.Info("Wiring clients...")
	return Clients{
		OpenAI:     openai.New(log, openai.ConfigFromEnv(log)),
		MailerLite: mailerlite.New(log, mailerlite.ConfigFromEnv(log)),
		Account:    account.New(log, account.ConfigFromEnv(log)),
	}
}
