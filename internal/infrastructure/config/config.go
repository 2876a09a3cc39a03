package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/veridian-id/veridian/internal/shared/config"
)

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Email    sharedConfig.EmailConfig    `mapstructure:"email"`
	SMS      sharedConfig.SMSConfig      `mapstructure:"sms"`
	Auth     sharedConfig.AuthConfig     `mapstructure:"auth"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	// Set environment variable prefix and replacer
	viper.SetEnvPrefix("VERIDIAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Defaults and environment variables are enough to run without a file.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "veridian_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Email defaults
	viper.SetDefault("email.smtp_host", "localhost")
	viper.SetDefault("email.smtp_port", 1025)
	viper.SetDefault("email.smtp_user", "")
	viper.SetDefault("email.smtp_password", "")
	viper.SetDefault("email.from_address", "noreply@veridian.local")
	viper.SetDefault("email.from_name", "Veridian")

	// SMS defaults (provider must be configured for real delivery)
	viper.SetDefault("sms.provider_url", "")
	viper.SetDefault("sms.api_key", "")
	viper.SetDefault("sms.sender", "Veridian")

	// Auth defaults
	viper.SetDefault("auth.jwt.secret", "change-me-in-production")
	viper.SetDefault("auth.jwt.issuer", "veridian")
	viper.SetDefault("auth.otp.code_length", 6)
	viper.SetDefault("auth.otp.expiry_minutes", 5)
	viper.SetDefault("auth.otp.cooldown_seconds", 60)
	viper.SetDefault("auth.otp.daily_cap", 10)
	viper.SetDefault("auth.otp.max_attempts", 5)
	viper.SetDefault("auth.passkey.rp_id", "localhost")
	viper.SetDefault("auth.passkey.rp_name", "Veridian")
	viper.SetDefault("auth.passkey.challenge_expiry_minutes", 5)
	viper.SetDefault("auth.push.request_ttl_seconds", 90)
	viper.SetDefault("auth.push.max_pending_requests", 3)
	viper.SetDefault("auth.push.max_device_failures", 5)
	viper.SetDefault("auth.recovery.request_expiry_minutes", 30)
	viper.SetDefault("auth.recovery.token_expiry_minutes", 15)
	viper.SetDefault("auth.recovery.max_step_attempts", 5)
	viper.SetDefault("auth.recovery.starts_per_email_per_day", 3)
	viper.SetDefault("auth.recovery.starts_per_ip_per_hour", 10)
}
