// Package config loads server settings from the environment and an optional
// taskpulse.yaml file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything cmd/server needs to come up.
type Config struct {
	DatabaseURL  string
	Port         string
	UserID       string
	TickInterval time.Duration
}

// Load reads configuration. Environment variables use the TASKPULSE_ prefix;
// DATABASE_URL is also honored bare for convenience. A missing config file
// is fine, a malformed one is not.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("user_id", "local")
	v.SetDefault("tick_interval", time.Second)

	v.SetConfigName("taskpulse")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/taskpulse")

	v.SetEnvPrefix("taskpulse")
	v.AutomaticEnv()
	_ = v.BindEnv("database_url", "TASKPULSE_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("port", "TASKPULSE_PORT", "PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return Config{
		DatabaseURL:  v.GetString("database_url"),
		Port:         v.GetString("port"),
		UserID:       v.GetString("user_id"),
		TickInterval: v.GetDuration("tick_interval"),
	}, nil
}
