/**
 * @description
 * This package handles the configuration management for the admin-service.
 * It uses the Viper library to read configuration from environment
 * variables, providing a centralized and straightforward way to manage
 * application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the admin-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	RabbitMQURL               string `mapstructure:"RABBITMQ_URL"`
	AdminEventExchange        string `mapstructure:"ADMIN_EVENT_EXCHANGE"`
	RedisURL                  string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix      string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	ClerkJWKSURL              string `mapstructure:"CLERK_JWKS_URL"`
	AllowedOrigins            string `mapstructure:"ALLOWED_ORIGINS"`
	BulkKYCRateLimitPerMinute int    `mapstructure:"BULK_KYC_RATE_LIMIT_PER_MINUTE"`
	DirectoryRefreshMinutes   int    `mapstructure:"DIRECTORY_REFRESH_MINUTES"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ADMIN_EVENT_EXCHANGE", "admin_events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "transfa:admin_rate_limit")
	viper.SetDefault("BULK_KYC_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("DIRECTORY_REFRESH_MINUTES", 5)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("ADMIN_EVENT_EXCHANGE")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "ADMIN_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("CLERK_JWKS_URL")
	_ = viper.BindEnv("ALLOWED_ORIGINS")
	_ = viper.BindEnv("BULK_KYC_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("DIRECTORY_REFRESH_MINUTES")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "transfa:admin_rate_limit"
	}
	if config.BulkKYCRateLimitPerMinute <= 0 {
		config.BulkKYCRateLimitPerMinute = 10
	}
	if config.DirectoryRefreshMinutes <= 0 {
		config.DirectoryRefreshMinutes = 5
	}

	return
}

// AllowedOriginList splits the comma-separated ALLOWED_ORIGINS value. An
// empty value allows any origin, which is only intended for local
// development.
func (c Config) AllowedOriginList() []string {
	raw := strings.TrimSpace(c.AllowedOrigins)
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
