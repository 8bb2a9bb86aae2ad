package app

import (
	"github.com/w8kerr/rtmbot/internal/infrastructure/fortune"
	slackinfra "github.com/w8kerr/rtmbot/internal/infrastructure/slack"
)

// Clients holds all external integration clients.
type Clients struct {
	Slack     *slackinfra.Client
	Transport *slackinfra.RTMTransport
	Fortune   *fortune.Provider
}

func (app *Application) initializeClients() error {
	token, err := app.config.Slack.ResolveToken()
	if err != nil {
		return err
	}

	slackClient := slackinfra.NewClient(token, app.config.History.PageLimit)

	app.clients = &Clients{
		Slack: slackClient,
		Transport: slackinfra.NewRTMTransport(
			slackClient.API(),
			app.config.Session.ReadTimeout,
			app.logger.Get(),
		),
		Fortune: fortune.NewProvider(
			app.config.Fortune.Command,
			app.config.Fortune.Timeout,
		),
	}

	app.logger.Get().Info("slack client initialized",
		"sentinel", app.config.Slack.CommandSentinel,
		"page_limit", app.config.History.PageLimit,
	)

	return nil
}
