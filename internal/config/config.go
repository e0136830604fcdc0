package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"astroapp-go/internal/zodiac"

	"github.com/go-playground/validator/v10"
)

// Config holds all configuration for the application.
type Config struct {
	HTTPPort      int    `json:"http_port" validate:"gte=0"`
	MetricsPort   int    `json:"metrics_port" validate:"gte=0"`
	LogLevel      string `json:"log_level" validate:"oneof=debug info warn error"`
	DBPath        string `json:"db_path" validate:"required"`
	StaticDir     string `json:"static_dir" validate:"required"`
	BotToken      string `json:"bot_token"`
	StarsPrice    int    `json:"stars_price" validate:"min=1"`
	RequireAuth   bool   `json:"require_auth"`
	DefaultZodiac string `json:"default_zodiac" validate:"required"`
}

// Default returns the configuration used when no file or environment
// overrides are present. The bot token has no default on purpose.
func Default() *Config {
	return &Config{
		HTTPPort:      8080,
		MetricsPort:   9091,
		LogLevel:      "info",
		DBPath:        "astro_bot.db",
		StaticDir:     "./web",
		StarsPrice:    250,
		DefaultZodiac: "aries",
	}
}

// Load builds the configuration from defaults, an optional JSON file and
// environment variable overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides overrides config fields with environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		c.BotToken = v
	}

	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.DBPath = v
	}

	if v := os.Getenv("STATIC_DIR"); v != "" {
		c.StaticDir = v
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PORT: %w", err)
		}
		c.HTTPPort = port
	}

	if v := os.Getenv("METRICS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing METRICS_PORT: %w", err)
		}
		c.MetricsPort = port
	}

	if v := os.Getenv("STARS_PRICE"); v != "" {
		price, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing STARS_PRICE: %w", err)
		}
		c.StarsPrice = price
	}

	if v := os.Getenv("REQUIRE_AUTH"); v != "" {
		require, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing REQUIRE_AUTH: %w", err)
		}
		c.RequireAuth = require
	}

	if v := os.Getenv("DEFAULT_ZODIAC"); v != "" {
		c.DefaultZodiac = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	return nil
}

// validate checks the configuration for errors.
func (c *Config) validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if _, ok := zodiac.Lookup(c.DefaultZodiac); !ok {
		return fmt.Errorf("unknown default zodiac sign %q", c.DefaultZodiac)
	}

	// Enforced auth needs a token to verify signatures against.
	if c.RequireAuth && c.BotToken == "" {
		return fmt.Errorf("require_auth is set but no bot token is configured")
	}

	return nil
}
