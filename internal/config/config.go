package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"

	"pdfpress/internal/common"
)

// Config holds the main configuration for the application.
type Config struct {
	Server      Server      `mapstructure:"server"`
	Upload      Upload      `mapstructure:"upload"`
	Ghostscript Ghostscript `mapstructure:"ghostscript"`
	Pipeline    Pipeline    `mapstructure:"pipeline"`
	Database    Database    `mapstructure:"database"`
	Policy      Policy      `mapstructure:"policy"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP port to listen on
}

// Upload holds upload boundary constraints.
type Upload struct {
	MaxBytes int64 `mapstructure:"max_bytes"` // maximum accepted upload size
}

// Ghostscript holds external tool configuration.
type Ghostscript struct {
	Binary  string        `mapstructure:"binary"`  // optional path override; empty means auto-discover
	Timeout time.Duration `mapstructure:"timeout"` // per-invocation deadline
}

// Pipeline holds temporary artifact configuration.
type Pipeline struct {
	TempDir string `mapstructure:"temp_dir"` // empty means the OS temp dir
	Workers int    `mapstructure:"workers"`  // max concurrent tool invocations; 0 = auto
}

// Database holds job history storage configuration.
type Database struct {
	Path string `mapstructure:"path"`
}

// Policy holds the upload restriction window.
type Policy struct {
	RestrictedAt string `mapstructure:"restricted_at"` // "hh:mm" local server time
	Enabled      bool   `mapstructure:"enabled"`
}

func setDefaults() {
	viper.SetDefault("server.http_port", "8080")
	viper.SetDefault("upload.max_bytes", common.MaxUploadBytes)
	viper.SetDefault("ghostscript.binary", "")
	viper.SetDefault("ghostscript.timeout", 2*time.Minute)
	viper.SetDefault("pipeline.temp_dir", "")
	viper.SetDefault("pipeline.workers", 0)
	viper.SetDefault("database.path", "pdfpress.sqlite3")
	viper.SetDefault("policy.restricted_at", "00:21")
	viper.SetDefault("policy.enabled", true)
}

// mustBindEnv binds operational environment variables to Viper keys.
//
// It panics if any environment variable cannot be bound.
func mustBindEnv() {
	bindings := map[string]string{
		"server.http_port":   "HTTP_PORT",
		"ghostscript.binary": "GHOSTSCRIPT_BINARY",
		"database.path":      "DATABASE_PATH",
	}

	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			zlog.Logger.Panic().Err(err).Msgf("failed to bind env %s", env)
		}
	}
}

// MustLoad loads the configuration from the specified directory.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to read config")
	}

	mustBindEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		zlog.Logger.Panic().Err(err).Msgf("failed to unmarshal config: %v", err)
	}

	return &cfg
}
