package app

import (
	"context"
	"io"
	"time"

	"github.com/w8kerr/rtmbot/internal/domain/repository"
	"github.com/w8kerr/rtmbot/internal/infrastructure/config"
	"github.com/w8kerr/rtmbot/internal/infrastructure/observability"
	"github.com/w8kerr/rtmbot/internal/infrastructure/server"
	"github.com/w8kerr/rtmbot/internal/usecase/command"
	"github.com/w8kerr/rtmbot/internal/usecase/directory"
	"github.com/w8kerr/rtmbot/internal/usecase/history"
	"github.com/w8kerr/rtmbot/internal/usecase/session"
)

// Application holds all application dependencies and lifecycle.
type Application struct {
	config        *config.Config
	configManager *config.ConfigManager
	logger        *AtomicLogger
	telemetry     *observability.Telemetry

	// Storage
	transcripts repository.TranscriptRepository
	dbCloser    io.Closer

	// Infrastructure clients
	clients *Clients

	// Use cases
	directory  *directory.Directory
	dispatcher *command.Dispatcher
	fetcher    *history.Fetcher
	loop       *session.Loop

	// HTTP layer
	handlers *server.Handlers
	server   *server.Server
}

// New creates a new Application instance.
func New(configPath string) (*Application, error) {
	app := &Application{}

	if err := app.bootstrap(configPath); err != nil {
		return nil, err
	}

	return app, nil
}

// Start loads the user directory and runs the session loop, the
// operational HTTP server, and the config watcher until the context is
// cancelled.
func (app *Application) Start(ctx context.Context) error {
	log := app.logger.Get()

	count, err := app.directory.Load(ctx, app.clients.Slack)
	if err != nil {
		return err
	}
	log.Info("user directory loaded", "members", count)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.server.Run(ctx)
	}()

	go func() {
		if err := app.configManager.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Error("config watcher stopped", "error", err)
		}
	}()

	loopErr := app.loop.Run(ctx)
	cancel()

	if err := <-serverErr; err != nil && ctx.Err() == nil {
		log.Error("server error", "error", err)
	}

	return loopErr
}

// Backfill retrieves a conversation's full transcript out-of-band,
// archiving it through the configured transcript repository.
func (app *Application) Backfill(ctx context.Context, conversationID string) ([]string, error) {
	count, err := app.directory.Load(ctx, app.clients.Slack)
	if err != nil {
		return nil, err
	}
	app.logger.Get().Info("user directory loaded", "members", count)

	return app.fetcher.FetchTranscript(ctx, conversationID)
}

// Shutdown gracefully stops the application.
func (app *Application) Shutdown() error {
	log := app.logger.Get()
	log.Info("shutting down rtmbot")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			log.Error("failed to shutdown telemetry", "error", err)
		}
	}

	if app.dbCloser != nil {
		if err := app.dbCloser.Close(); err != nil {
			log.Error("failed to close database", "error", err)
			return err
		}
	}

	log.Info("rtmbot stopped")
	return nil
}
