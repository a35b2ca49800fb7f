// Package config loads ruleflow settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds the settings shared by every command.
type Config struct {
	// DB is the SQLite database path.
	DB string `env:"RULEFLOW_DB" envDefault:"ruleflow.db" validate:"required"`

	// MaxVersions caps the undo history.
	MaxVersions int `env:"RULEFLOW_MAX_VERSIONS" envDefault:"100" validate:"min=1,max=10000"`

	// Strict makes unknown action tags panic instead of returning an error.
	Strict bool `env:"RULEFLOW_STRICT" envDefault:"false"`

	// ClassName names the generated engine class of new documents.
	ClassName string `env:"RULEFLOW_CLASS_NAME" envDefault:"RulesEngine" validate:"required,classname"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"RULEFLOW_LOG_LEVEL" envDefault:"warn" validate:"oneof=debug info warn error"`
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validate is the validator instance for Config.
// Initialized in init() with custom validators.
var validate *validator.Validate

func init() {
	v, err := newValidator()
	if err != nil {
		panic(fmt.Sprintf("config: register validators: %v", err))
	}
	validate = v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("classname", func(fl validator.FieldLevel) bool {
		return identifier.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints. Call it again after applying overrides.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}
