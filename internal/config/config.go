package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerAddr     string   `envconfig:"SERVER_ADDR" default:"localhost:8000"`
	DatabaseDSN    string   `envconfig:"DATABASE_DSN"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
	// Path to a Firebase service account key. Push notifications are
	// disabled when empty.
	FCMCredentialsFile string `envconfig:"FCM_CREDENTIALS_FILE"`
	// CloseOnSupersede closes the old transport when a participant opens a
	// second connection to the same room.
	CloseOnSupersede bool `envconfig:"CLOSE_ON_SUPERSEDE" default:"true"`
	// NotifyOfflineOnly skips push notifications for participants that have
	// a live connection and already received the broadcast.
	NotifyOfflineOnly bool `envconfig:"NOTIFY_OFFLINE_ONLY" default:"true"`
}

// Load reads configuration from the environment, with an optional .env file
// for local development. Values already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("chathub", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}

	return nil
}
