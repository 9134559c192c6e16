package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/database"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/env"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
)

func main() {
	env.SetupEnvFile()
	if err := logger.Init(logger.Config{
		Level:       env.GetEnv("LOG_LEVEL", "info"),
		Environment: env.GetEnv("APP_ENV", "dev"),
		ServiceName: "agendamento-migrate",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	cfg := database.LoadConfig()
	dbURL, err := cfg.MigrateURL()
	if err != nil {
		log.Fatal("invalid database configuration", zap.Error(err))
	}
	source := "file://" + env.GetEnv("MIGRATIONS_PATH", "migrations/"+cfg.Driver)

	log.Info("connecting to database",
		zap.String("driver", cfg.Driver),
		zap.String("user", cfg.User),
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Name),
		zap.String("source", source),
	)

	m, err := migrate.New(source, dbURL)
	if err != nil {
		log.Fatal("failed to initialize migrations", zap.Error(err))
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Warn("failed to close migration resources", zap.NamedError("source", sourceErr), zap.NamedError("database", dbErr))
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Info("no change: database is up to date")
		case err != nil:
			log.Fatal("failed to apply migrations", zap.Error(err))
		default:
			log.Info("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatal("failed to roll back the last migration", zap.Error(err))
		}
		log.Info("last migration rolled back")

	case "goto":
		if len(os.Args) < 3 {
			log.Fatal("goto needs a version number")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatal("invalid version number", zap.Error(err))
		}
		err = m.Migrate(uint(version))
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Info("no change: database already at version", zap.Uint64("version", version))
		case err != nil:
			log.Fatal("failed to migrate", zap.Uint64("version", version), zap.Error(err))
		default:
			log.Info("migrated", zap.Uint64("version", version))
		}

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Info("no migrations applied yet")
		case err != nil:
			log.Fatal("failed to read migration version", zap.Error(err))
		default:
			log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: migrate [command]")
	fmt.Println("Commands:")
	fmt.Println("  up     - apply all pending migrations")
	fmt.Println("  down   - roll back the last migration")
	fmt.Println("  goto N - migrate to version N")
	fmt.Println("  status - show the current migration version")
}
