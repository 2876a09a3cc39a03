package config

import "fmt"

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

type SMSConfig struct {
	ProviderURL string `mapstructure:"provider_url"`
	APIKey      string `mapstructure:"api_key"`
	Sender      string `mapstructure:"sender"`
}

// OTPConfig controls one-time code issuance shared by the SMS and email channels.
type OTPConfig struct {
	CodeLength      int `mapstructure:"code_length"`
	ExpiryMinutes   int `mapstructure:"expiry_minutes"`
	CooldownSeconds int `mapstructure:"cooldown_seconds"`
	DailyCap        int `mapstructure:"daily_cap"`
	MaxAttempts     int `mapstructure:"max_attempts"`
}

type PasskeyConfig struct {
	RPID            string   `mapstructure:"rp_id"`
	RPName          string   `mapstructure:"rp_name"`
	ChallengeExpiry int      `mapstructure:"challenge_expiry_minutes"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

type PushAuthConfig struct {
	RequestTTLSeconds  int `mapstructure:"request_ttl_seconds"`
	MaxPendingRequests int `mapstructure:"max_pending_requests"`
	MaxDeviceFailures  int `mapstructure:"max_device_failures"`
}

type RecoveryConfig struct {
	RequestExpiryMinutes int `mapstructure:"request_expiry_minutes"`
	TokenExpiryMinutes   int `mapstructure:"token_expiry_minutes"`
	MaxStepAttempts      int `mapstructure:"max_step_attempts"`
	StartsPerEmailPerDay int `mapstructure:"starts_per_email_per_day"`
	StartsPerIPPerHour   int `mapstructure:"starts_per_ip_per_hour"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type AuthConfig struct {
	JWT      JWTConfig      `mapstructure:"jwt"`
	OTP      OTPConfig      `mapstructure:"otp"`
	Passkey  PasskeyConfig  `mapstructure:"passkey"`
	Push     PushAuthConfig `mapstructure:"push"`
	Recovery RecoveryConfig `mapstructure:"recovery"`
}
