package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/willozwi/AppCaccia/internal/db"
)

// EnvPrefix prefixes every environment override, e.g. PERMITS_DATABASE_HOST.
const EnvPrefix = "PERMITS"

// Config is the full application configuration.
type Config struct {
	Database db.Config
	Import   ImportConfig
	Sheets   RetryConfig
	Log      LogConfig
	HTTP     HTTPConfig
}

// ImportConfig tunes the folder import.
type ImportConfig struct {
	MaxAttempts int
	BackoffUnit time.Duration
	Actor       string
}

// RetryConfig tunes a contention retry loop.
type RetryConfig struct {
	MaxAttempts int
	BackoffUnit time.Duration
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	dbDefaults := db.DefaultConfig()
	v.SetDefault("database.host", dbDefaults.Host)
	v.SetDefault("database.port", dbDefaults.Port)
	v.SetDefault("database.user", dbDefaults.User)
	v.SetDefault("database.password", dbDefaults.Password)
	v.SetDefault("database.dbname", dbDefaults.DBName)
	v.SetDefault("database.sslmode", dbDefaults.SSLMode)
	v.SetDefault("database.max_conns", dbDefaults.MaxConns)
	v.SetDefault("database.lock_timeout", dbDefaults.LockTimeout)

	v.SetDefault("import.max_attempts", 3)
	v.SetDefault("import.backoff_unit", 500*time.Millisecond)
	v.SetDefault("import.actor", "import")

	v.SetDefault("sheets.max_attempts", 5)
	v.SetDefault("sheets.backoff_unit", 100*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("http.shutdown_timeout", 30*time.Second)
}

// Load reads config.yaml from configPath (when present) and applies
// PERMITS_* environment overrides on top of the defaults.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		slog.Debug("no config.yaml found, using defaults and env vars", "path", configPath)
	} else {
		slog.Debug("loaded config", "file", v.ConfigFileUsed())
	}

	cfg := Config{
		Database: db.Config{
			Host:        v.GetString("database.host"),
			Port:        v.GetInt("database.port"),
			User:        v.GetString("database.user"),
			Password:    v.GetString("database.password"),
			DBName:      v.GetString("database.dbname"),
			SSLMode:     v.GetString("database.sslmode"),
			MaxConns:    v.GetInt32("database.max_conns"),
			LockTimeout: v.GetDuration("database.lock_timeout"),
		},
		Import: ImportConfig{
			MaxAttempts: v.GetInt("import.max_attempts"),
			BackoffUnit: v.GetDuration("import.backoff_unit"),
			Actor:       v.GetString("import.actor"),
		},
		Sheets: RetryConfig{
			MaxAttempts: v.GetInt("sheets.max_attempts"),
			BackoffUnit: v.GetDuration("sheets.backoff_unit"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTPConfig{
			Addr:            v.GetString("http.addr"),
			AllowedOrigins:  v.GetStringSlice("http.allowed_origins"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
	}

	if cfg.Import.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("import.max_attempts must be at least 1, got %d", cfg.Import.MaxAttempts)
	}
	if cfg.Sheets.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("sheets.max_attempts must be at least 1, got %d", cfg.Sheets.MaxAttempts)
	}

	return cfg, nil
}
