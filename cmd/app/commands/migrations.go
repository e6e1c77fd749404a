package commands

import (
	"log/slog"

	"github.com/allisson/writequeue/internal/database"
)

// RunMigrations applies the embedded migrations to the local log database.
func RunMigrations(logger *slog.Logger, cfg database.Config) error {
	logger.Info("running database migrations", slog.String("driver", cfg.Driver))

	if err := database.MigrateConfig(cfg); err != nil {
		return err
	}

	logger.Info("migrations completed successfully")
	return nil
}
