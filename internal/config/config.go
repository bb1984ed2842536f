// Package config loads runtime settings from the environment, optionally seeded from a .env file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. REVIEWSCHED_DB_DRIVER.
const EnvPrefix = "REVIEWSCHED"

// Config holds the settings of the service.
type Config struct {
	DBDriver       string
	DBDSN          string
	HTTPAddr       string
	Debug          bool
	LogLevel       string
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	SweeperEnabled bool
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("db_driver", "sqlite3")
	v.SetDefault("db_dsn", "data/reviewsched.db")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("session_ttl", 2*time.Hour)
	v.SetDefault("sweep_interval", 15*time.Minute)
	v.SetDefault("sweeper_enabled", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional dotenv file (ignored if it does not exist) and then the environment.
func Load(dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, errors.Wrapf(err, "config.godotenv(%s)", dotEnvPath)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "config.os.Stat(%s)", dotEnvPath)
		}
	}
	return FromViper(New())
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBDriver:       strings.ToLower(strings.TrimSpace(v.GetString("db_driver"))),
		DBDSN:          v.GetString("db_dsn"),
		HTTPAddr:       v.GetString("http_addr"),
		Debug:          v.GetBool("debug"),
		LogLevel:       v.GetString("log_level"),
		SessionTTL:     v.GetDuration("session_ttl"),
		SweepInterval:  v.GetDuration("sweep_interval"),
		SweeperEnabled: v.GetBool("sweeper_enabled"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return errors.Errorf("db_driver must be sqlite3 or postgres, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("db_dsn is required")
	}
	if c.SessionTTL <= 0 {
		return errors.Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	if c.SweepInterval <= 0 {
		return errors.Errorf("sweep_interval must be positive, got %s", c.SweepInterval)
	}
	return nil
}
