package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yigit/horario/internal/app/models"
	"github.com/yigit/horario/internal/pkg/apperrors"
	"github.com/yigit/horario/internal/pkg/helpers"
	"github.com/yigit/horario/internal/pkg/validation"
)

// DefaultPath is where the CLI looks for a config file when none is given.
var DefaultPath = filepath.Join("configs", "config.yaml")

// ProgramConfig describes one academic program and its schedule export.
type ProgramConfig struct {
	ID     string `yaml:"id" validate:"required,program_id"`
	Name   string `yaml:"name" validate:"required"`
	Source string `yaml:"source" validate:"required"`
}

// Config structure represents the application configuration
type Config struct {
	Database struct {
		URL             string `yaml:"url" env:"DATABASE_URL"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxConns        int    `yaml:"max_conns" env:"DB_MAX_CONNS" validate:"min=1"`
		MinConns        int    `yaml:"min_conns" env:"DB_MIN_CONNS" validate:"min=0"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" validate:"duration"`
		ConnectTimeout  string `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT" validate:"duration"`
	} `yaml:"database"`

	Loader struct {
		BatchSize int    `yaml:"batch_size" env:"LOADER_BATCH_SIZE" validate:"min=1"`
		Pace      string `yaml:"pace" env:"LOADER_PACE" validate:"duration"`
	} `yaml:"loader"`

	Import struct {
		Faculty string `yaml:"faculty" env:"IMPORT_FACULTY" validate:"required"`
		DataDir string `yaml:"data_dir" env:"IMPORT_DATA_DIR"`
	} `yaml:"import"`

	Programs []ProgramConfig `yaml:"programs" validate:"required,min=1,dive"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT" validate:"omitempty,oneof=text json"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// A missing file is fine: defaults plus environment are enough to run.
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Database defaults (local development only; real credentials come from the environment)
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.DBName = "horario"
	config.Database.SSLMode = "disable"
	config.Database.MaxConns = 4
	config.Database.MinConns = 1
	config.Database.ConnMaxLifetime = "1h"
	config.Database.ConnectTimeout = "10s"

	// Loader defaults
	config.Loader.BatchSize = 20
	config.Loader.Pace = "300ms"

	// Import defaults
	config.Import.Faculty = "Facultad de Ciencias de la Computacion"
	config.Import.DataDir = "."

	config.Programs = []ProgramConfig{
		{ID: "ICC", Name: "Ing. en Ciencias de la Computación", Source: "data/horarios_icc.csv"},
		{ID: "LICC", Name: "Lic. en Ciencias de la Computación", Source: "data/horarios_licc_pa2026.csv"},
		{ID: "ITI", Name: "Ing. en Tecnologías de la Información", Source: "data/horarios_iti.csv"},
	}

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "text"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if err := validation.New().Struct(config); err != nil {
		return err
	}

	if config.Database.URL == "" && config.Database.Host == "" {
		return errors.New("database url or host is required")
	}

	if config.Database.MinConns > config.Database.MaxConns {
		return fmt.Errorf("database min_conns (%d) exceeds max_conns (%d)", config.Database.MinConns, config.Database.MaxConns)
	}

	seen := make(map[string]struct{}, len(config.Programs))
	for _, p := range config.Programs {
		id := strings.ToUpper(p.ID)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("program %s is configured twice", p.ID)
		}
		seen[id] = struct{}{}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// Pace returns the minimum interval between two batch inserts.
func (c *Config) Pace() time.Duration {
	return helpers.ParseDuration(c.Loader.Pace, 300*time.Millisecond)
}

// ConnectTimeout returns how long the initial connection may take.
func (c *Config) ConnectTimeout() time.Duration {
	return helpers.ParseDuration(c.Database.ConnectTimeout, 10*time.Second)
}

// ConnMaxLifetime returns how long a pooled connection may be reused.
func (c *Config) ConnMaxLifetime() time.Duration {
	return helpers.ParseDuration(c.Database.ConnMaxLifetime, time.Hour)
}

// ProgramList returns every configured program with its source resolved
// against the data directory.
func (c *Config) ProgramList() []models.Program {
	programs := make([]models.Program, 0, len(c.Programs))
	for _, p := range c.Programs {
		programs = append(programs, c.toProgram(p))
	}
	return programs
}

// Program looks up one configured program by identifier (case-insensitive).
func (c *Config) Program(id string) (models.Program, error) {
	for _, p := range c.Programs {
		if strings.EqualFold(p.ID, id) {
			return c.toProgram(p), nil
		}
	}
	return models.Program{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownProgram, id)
}

func (c *Config) toProgram(p ProgramConfig) models.Program {
	source := p.Source
	if !filepath.IsAbs(source) && c.Import.DataDir != "" {
		source = filepath.Join(c.Import.DataDir, source)
	}
	return models.Program{ID: strings.ToUpper(p.ID), Name: p.Name, Source: source}
}
