package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Shell     ShellConfig
	Platform  PlatformConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// ShellConfig describes the bundled web application and how it is addressed.
type ShellConfig struct {
	LocalHost       string   `envconfig:"LOCAL_HOST" default:"ciphernotes.com"`
	AssetRoot       string   `envconfig:"ASSET_ROOT" default:"www"`
	AssetDir        string   `envconfig:"ASSET_DIR"`
	IndexDocument   string   `envconfig:"INDEX_DOCUMENT" default:"index.html"`
	DownloadsSubdir string   `envconfig:"DOWNLOADS_SUBDIR" default:"Ciphernotes"`
	UserAgentSuffix string   `envconfig:"USER_AGENT_SUFFIX" default:"CiphernotesTwa/3"`
	InternalHosts   []string `envconfig:"INTERNAL_HOSTS"`
}

// PlatformConfig feeds the capability descriptor resolved at startup.
type PlatformConfig struct {
	APILevel        int    `envconfig:"PLATFORM_API_LEVEL" default:"29"`
	CameraAvailable bool   `envconfig:"CAMERA_AVAILABLE" default:"true"`
	StorageRoot     string `envconfig:"STORAGE_ROOT" default:"/tmp/ciphernotes-shell/storage"`
	CaptureDir      string `envconfig:"CAPTURE_DIR" default:"/tmp/ciphernotes-shell/cache/camera"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration for the page bridge.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "127.0.0.1",
		},
		Shell: ShellConfig{
			LocalHost:       "ciphernotes.com",
			AssetRoot:       "www",
			IndexDocument:   "index.html",
			DownloadsSubdir: "Ciphernotes",
			UserAgentSuffix: "CiphernotesTwa/3",
		},
		Platform: PlatformConfig{
			APILevel:        29,
			CameraAvailable: true,
			StorageRoot:     "/tmp/ciphernotes-shell/storage",
			CaptureDir:      "/tmp/ciphernotes-shell/cache/camera",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
