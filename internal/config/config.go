package config

import (
	"fmt"
	"strings"
	"time"

	"stokvel/pkg/joincode"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime settings for the stokvel service.
type Config struct {
	AppEnv         string
	AppPort        string
	DatabaseDriver string
	DatabaseDSN    string
	JWTSecret      string
	JWTTTL         time.Duration
	RabbitMQURL    string
	InviteQueue    string
	LogInvites     bool // consume the invite queue and log each event
	UploadDir      string
	JoinCodeLength int
	LogLevel       string
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "stokvel_sami.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("RABBITMQ_URL", "") // empty disables the broker
	v.SetDefault("INVITE_QUEUE", "invite_queue")
	v.SetDefault("INVITE_CONSUMER_ENABLED", false)
	v.SetDefault("UPLOAD_DIR", "static/uploads")
	v.SetDefault("JOIN_CODE_LENGTH", 6)
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads an optional .env file, then environment variables over defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		AppEnv:         v.GetString("APP_ENV"),
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTTTL:         v.GetDuration("JWT_TTL"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		InviteQueue:    v.GetString("INVITE_QUEUE"),
		LogInvites:     v.GetBool("INVITE_CONSUMER_ENABLED"),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		JoinCodeLength: v.GetInt("JOIN_CODE_LENGTH"),
		LogLevel:       v.GetString("LOG_LEVEL"),
	}
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	var problems []string

	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("unsupported DATABASE_DRIVER %q (want sqlite or postgres)", c.DatabaseDriver))
	}
	if c.DatabaseDSN == "" {
		problems = append(problems, "DATABASE_DSN is required")
	}
	if c.JWTSecret == "" {
		if c.IsDevelopment() {
			c.JWTSecret = "dev_jwt_secret"
		} else {
			problems = append(problems, "JWT_SECRET is required outside development")
		}
	}
	if c.JWTTTL <= 0 {
		problems = append(problems, "JWT_TTL must be positive")
	}
	if c.JoinCodeLength < joincode.MinLength || c.JoinCodeLength > joincode.MaxLength {
		problems = append(problems, fmt.Sprintf("JOIN_CODE_LENGTH must be between %d and %d, got %d", joincode.MinLength, joincode.MaxLength, c.JoinCodeLength))
	}
	if c.InviteQueue == "" {
		problems = append(problems, "INVITE_QUEUE is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
