package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application's configuration values.
type Config struct {
	StoreDriver string
	SQLitePath  string
	Database    *DBConfig
	// Timezone is the reference zone for calendar-day filtering. Day
	// boundaries are taken in this zone, never in the server's local zone.
	Timezone *time.Location
	LogLevel slog.Level
}

// DBConfig holds the PostgreSQL connection settings.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("STORE_DRIVER", DriverSQLite)
	viper.SetDefault("SQLITE_PATH", "review-ledger.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")
	viper.SetDefault("REVIEW_TIMEZONE", "UTC")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	driver := strings.ToLower(viper.GetString("STORE_DRIVER"))
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q: must be %q or %q", driver, DriverSQLite, DriverPostgres)
	}

	if driver == DriverPostgres {
		if viper.GetString("DB_NAME") == "" {
			return nil, fmt.Errorf("DB_NAME must be set when STORE_DRIVER is %q", DriverPostgres)
		}
		if viper.GetString("DB_USER") == "" {
			return nil, fmt.Errorf("DB_USER must be set when STORE_DRIVER is %q", DriverPostgres)
		}
	}

	// The reference time zone is explicit configuration: day filtering must
	// not silently depend on wherever the process happens to run.
	loc, err := time.LoadLocation(viper.GetString("REVIEW_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid REVIEW_TIMEZONE %q: %w", viper.GetString("REVIEW_TIMEZONE"), err)
	}

	// Parse the log level string into a slog.Level type.
	var logLevel slog.Level
	logLevelStr := strings.ToLower(viper.GetString("LOG_LEVEL"))
	switch logLevelStr {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", logLevelStr)
		logLevel = slog.LevelInfo
	}

	return &Config{
		StoreDriver: driver,
		SQLitePath:  viper.GetString("SQLITE_PATH"),
		Database: &DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Timezone: loc,
		LogLevel: logLevel,
	}, nil
}
