package app

import (
	"context"
	"fmt"

	"github.com/w8kerr/rtmbot/internal/infrastructure/persistence/memory"
	"github.com/w8kerr/rtmbot/internal/infrastructure/persistence/mysql"
	"github.com/w8kerr/rtmbot/internal/infrastructure/persistence/sqlite"
)

func (app *Application) initializeStorage() error {
	log := app.logger.Get()

	switch app.config.Storage.Type {
	case "mysql":
		db, err := mysql.NewDB(&app.config.Storage.MySQL)
		if err != nil {
			return fmt.Errorf("mysql init: %w", err)
		}
		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return fmt.Errorf("mysql migrate: %w", err)
		}
		app.transcripts = mysql.NewTranscriptRepository(db)
		app.dbCloser = db

		log.Info("MySQL storage initialized",
			"host", app.config.Storage.MySQL.Host,
			"database", app.config.Storage.MySQL.Database,
		)

	case "sqlite":
		db, err := sqlite.NewDB(app.config.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite init: %w", err)
		}
		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return fmt.Errorf("sqlite migrate: %w", err)
		}
		app.transcripts = sqlite.NewTranscriptRepository(db.DB)
		app.dbCloser = db

		log.Info("SQLite storage initialized", "path", app.config.Storage.SQLite.Path)

	case "memory", "":
		app.transcripts = memory.NewTranscriptRepository()
		log.Info("in-memory storage initialized")

	default:
		return fmt.Errorf("unknown storage type: %s", app.config.Storage.Type)
	}

	return nil
}
