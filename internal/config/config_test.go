package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "review-ledger.db", cfg.SQLitePath)
	assert.Equal(t, time.UTC, cfg.Timezone)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxIdleTime)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unsupported driver",
			env:     map[string]string{"STORE_DRIVER": "mysql"},
			wantErr: "unsupported STORE_DRIVER",
		},
		{
			name:    "postgres without database name",
			env:     map[string]string{"STORE_DRIVER": "postgres", "DB_USER": "warden"},
			wantErr: "DB_NAME must be set",
		},
		{
			name:    "postgres without database user",
			env:     map[string]string{"STORE_DRIVER": "postgres", "DB_NAME": "reviews"},
			wantErr: "DB_USER must be set",
		},
		{
			name:    "invalid time zone",
			env:     map[string]string{"REVIEW_TIMEZONE": "Mars/Olympus_Mons"},
			wantErr: "invalid REVIEW_TIMEZONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_Postgres(t *testing.T) {
	viper.Reset()
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_NAME", "code_review_db")
	t.Setenv("DB_USER", "warden")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REVIEW_TIMEZONE", "Europe/Berlin")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "code_review_db", cfg.Database.Database)
	assert.Equal(t, "warden", cfg.Database.Username)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone.String())
}

func TestLoadConfig_LogLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo}, // unrecognized falls back to info
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			viper.Reset()
			t.Setenv("LOG_LEVEL", tt.level)

			cfg, err := LoadConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LogLevel)
		})
	}
}
