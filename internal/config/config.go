package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	MongoDB MongoDBConfig
	JWT     JWTConfig
	SMS     SMSConfig
	Redis   RedisConfig
	Log     LogConfig
	Env     string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds session-token configuration. ExpiresIn is in seconds and
// is the single expiry used by every token-issuing call site.
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// SMSConfig holds SMS gateway configuration
type SMSConfig struct {
	Provider  string
	TwoFactor TwoFactorConfig
	Mock      bool
}

// TwoFactorConfig holds 2Factor.in gateway credentials
type TwoFactorConfig struct {
	BaseURL string
	APIKey  string
}

// RedisConfig holds cache and rate-limit store configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LogConfig holds logging configuration. File is optional; when set, logs
// rotate there in addition to stdout.
type LogConfig struct {
	Level string
	File  string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; environment variables cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Env", "development")
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"http://localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "cardvault")
	viper.SetDefault("JWT.ExpiresIn", 7*24*60*60) // 7 days
	viper.SetDefault("SMS.Provider", "twofactor")
	viper.SetDefault("SMS.TwoFactor.BaseURL", "https://2factor.in/API/V1")
	viper.SetDefault("SMS.Mock", true)
	viper.SetDefault("Redis.Enabled", false)
	viper.SetDefault("Redis.Addr", "localhost:6379")
	viper.SetDefault("Redis.DB", 0)
	viper.SetDefault("Log.Level", "info")
}
