package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type WebhookConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type Config struct {
	DatabaseURL   string        `mapstructure:"database_url"`
	ServerPort    string        `mapstructure:"server_port"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	AllowedOrigin string        `mapstructure:"allowed_origin"`
	Webhook       WebhookConfig `mapstructure:"webhook"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.AllowedOrigin == "" {
		config.AllowedOrigin = "http://localhost:3000"
	}
	if config.Webhook.Timeout <= 0 {
		config.Webhook.Timeout = 10 * time.Second
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	return &config
}
