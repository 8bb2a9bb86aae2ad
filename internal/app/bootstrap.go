package app

import (
	"fmt"

	"github.com/w8kerr/rtmbot/internal/adapter/handler"
	"github.com/w8kerr/rtmbot/internal/infrastructure/config"
	"github.com/w8kerr/rtmbot/internal/infrastructure/server"
	"github.com/w8kerr/rtmbot/internal/usecase/command"
	"github.com/w8kerr/rtmbot/internal/usecase/directory"
	"github.com/w8kerr/rtmbot/internal/usecase/history"
	"github.com/w8kerr/rtmbot/internal/usecase/session"
)

func (app *Application) bootstrap(configPath string) error {
	// 1. Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	app.config = cfg

	// 2. Setup logger
	logger, err := NewAtomicLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	app.logger = logger

	// 3. Setup telemetry (OpenTelemetry)
	if err := app.setupTelemetry(); err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	// 4. Setup config manager with reload callback
	if err := app.setupConfigManager(configPath); err != nil {
		return fmt.Errorf("setting up config manager: %w", err)
	}

	// 5. Initialize storage layer
	if err := app.initializeStorage(); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	// 6. Initialize infrastructure clients
	if err := app.initializeClients(); err != nil {
		return fmt.Errorf("initializing clients: %w", err)
	}

	// 7. Initialize use cases
	if err := app.initializeUseCases(); err != nil {
		return fmt.Errorf("initializing use cases: %w", err)
	}

	// 8. Initialize HTTP handlers and server
	if err := app.setupServer(); err != nil {
		return fmt.Errorf("setting up server: %w", err)
	}

	return nil
}

func (app *Application) setupConfigManager(configPath string) error {
	onReload := func(cfg *config.Config) error {
		if err := app.logger.Apply(cfg.Logging); err != nil {
			return fmt.Errorf("applying logging config: %w", err)
		}
		if app.loop != nil {
			app.loop.SetTickInterval(cfg.Session.TickInterval)
		}
		app.config = cfg
		return nil
	}

	cm, err := config.NewManager(configPath, app.config, onReload, app.logger.Get())
	if err != nil {
		return err
	}
	app.configManager = cm
	return nil
}

func (app *Application) initializeUseCases() error {
	ucLogger := &slogAdapter{al: app.logger}

	app.directory = directory.New()

	app.dispatcher = command.NewDispatcher(
		app.config.Slack.CommandSentinel,
		app.clients.Slack,
		app.clients.Fortune,
		ucLogger,
	)

	var histMetrics history.Metrics
	var metrics session.Metrics
	if app.telemetry != nil {
		histMetrics = app.telemetry.Metrics
		metrics = app.telemetry.Metrics
		app.clients.Slack.SetMetrics(app.telemetry.Metrics)
	}

	app.fetcher = history.NewFetcher(
		app.clients.Slack,
		app.directory,
		app.transcripts,
		ucLogger,
		histMetrics,
		app.config.History.PreDelay,
	)
	app.loop = session.NewLoop(
		app.clients.Transport,
		app.dispatcher,
		app.directory,
		ucLogger,
		metrics,
		app.config.Session.TickInterval,
	)

	return nil
}

func (app *Application) setupServer() error {
	app.handlers = &server.Handlers{
		Health:  handler.NewHealthHandler(func() bool { return app.loop.IsConnected() }),
		Metrics: handler.NewMetricsHandler(),
		Reload:  handler.NewReloadHandler(app.configManager, &slogAdapter{al: app.logger}),
	}

	router := server.NewRouter(app.handlers, app.logger.Get())
	app.server = server.New(app.config.Server, router, app.logger.Get())
	return nil
}
