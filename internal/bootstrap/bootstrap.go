package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	appMigrations "github.com/yigit/horario/internal/app/migrations"
	appRepos "github.com/yigit/horario/internal/app/repositories"
	"github.com/yigit/horario/internal/config"
	"github.com/yigit/horario/internal/db"
	"github.com/yigit/horario/internal/loader"
	"github.com/yigit/horario/internal/migration"
	"github.com/yigit/horario/internal/pkg/logger"
)

// LoadConfigAndSetupLogger loads .env and the configuration, then initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		logger.Warn().Err(err).Msg("Could not load .env file")
	}

	if configPath == "" {
		configPath = config.DefaultPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) != "json"

	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
		Output: os.Stderr,
	})
	lgr.Debug().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database, lgr).Migrate(ctx); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// Connector returns how a migration run reaches its store, and a cleanup func
// releasing whatever the connector opened. With dryRun the run writes to a
// fresh in-memory store and nothing touches the database.
func Connector(cfg *config.Config, lgr zerolog.Logger, dryRun bool) (migration.Connector, func()) {
	if dryRun {
		return func(context.Context) (appRepos.Store, error) {
			lgr.Warn().Msg("Dry run: writing to an in-memory store")
			return appRepos.NewMemoryStore(), nil
		}, func() {}
	}

	var database *db.PostgresDB
	connect := func(ctx context.Context) (appRepos.Store, error) {
		d, err := SetupDatabase(ctx, cfg, lgr)
		if err != nil {
			return nil, err
		}
		database = d
		return appRepos.NewPostgresStore(d.Pool, lgr), nil
	}
	cleanup := func() {
		if database != nil {
			database.Close()
		}
	}
	return connect, cleanup
}

// Settings maps the loader and import sections of cfg onto migration settings.
func Settings(cfg *config.Config) migration.Settings {
	return migration.Settings{
		BatchSize: cfg.Loader.BatchSize,
		Limiter:   loader.NewRateLimiter(cfg.Pace()),
		Faculty:   cfg.Import.Faculty,
	}
}
