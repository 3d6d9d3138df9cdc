package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	DBPath    string `envconfig:"DB_PATH" default:"./data/medtrack.db"`
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"Asia/Kolkata"` // zone for users created without one
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`          // debug|info|warn|error
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
