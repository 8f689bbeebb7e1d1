// Package config loads the process configuration from defaults, command
// line flags and environment variables (in that order of precedence,
// environment winning), and validates the result.
package config

import (
	"flag"
	"fmt"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/Verkylen/projeto17-shortly/internal/logger"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	DatabaseDSN         string        `env:"DATABASE_URL"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`
}

var defaultConfig = Config{
	RunAddr:             ":4000",
	DatabaseDSN:         "",
	LogLevel:            "info",
	MigrationsDir:       "cmd/shortly/migrations",
	DBConnectionTimeout: 10 * time.Second,
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowed := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowed[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption customizes New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command line parsing; tests use it to
// avoid fighting over the global flag set.
func WithDisableFlagsParsing(disable bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disable
	}
}

func applyDefaults(target *Config, defaults Config) {
	*target = defaults
}

// New builds the configuration from defaults, flags and environment.
// A .env file in the working directory is honored when present.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		logger.Log.Debugln("unable to load .env file:", err)
	}

	cfg := &Config{}
	applyDefaults(cfg, defaultConfig)

	if !options.disableFlagsParsing {
		flag.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
		flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "PostgreSQL connection string")
		flag.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
		flag.StringVar(&cfg.MigrationsDir, "m", cfg.MigrationsDir, "directory with goose migrations")
		flag.Parse()
	}

	fromEnv := Config{}
	if err := env.Parse(&fromEnv); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if fromEnv.RunAddr != "" {
		cfg.RunAddr = fromEnv.RunAddr
	}

	if fromEnv.DatabaseDSN != "" {
		cfg.DatabaseDSN = fromEnv.DatabaseDSN
	}

	if fromEnv.LogLevel != "" {
		cfg.LogLevel = fromEnv.LogLevel
	}

	if fromEnv.MigrationsDir != "" {
		cfg.MigrationsDir = fromEnv.MigrationsDir
	}

	if fromEnv.DBConnectionTimeout != 0 {
		cfg.DBConnectionTimeout = fromEnv.DBConnectionTimeout
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
