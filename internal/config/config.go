package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	HealthPort   int           `mapstructure:"health_port" envconfig:"HEALTH_PORT"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DB_HOST"`
	Port     int    `mapstructure:"port" envconfig:"DB_PORT"`
	User     string `mapstructure:"user" envconfig:"DB_USER"`
	Password string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type ProcessingConfig struct {
	BatchSize          int             `mapstructure:"batch_size"`
	PollInterval       time.Duration   `mapstructure:"poll_interval"`
	DefaultMaxAttempts int             `mapstructure:"default_max_attempts"`
	UrgentMaxAttempts  int             `mapstructure:"urgent_max_attempts"`
	RetryDelays        []time.Duration `mapstructure:"retry_delays"`
}

type PresenceConfig struct {
	OfflineThresholdMinutes int `mapstructure:"offline_threshold_minutes"`
}

func (c PresenceConfig) OfflineThreshold() time.Duration {
	return time.Duration(c.OfflineThresholdMinutes) * time.Minute
}

type SMTPConfig struct {
	Host           string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port           int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username       string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password       string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From           string `mapstructure:"from" envconfig:"SMTP_FROM"`
	PoolSize       int    `mapstructure:"pool_size"`
	MaxPerConn     int    `mapstructure:"max_per_conn"`
}

type PushConfig struct {
	VAPIDSubject    string `mapstructure:"vapid_subject" envconfig:"VAPID_SUBJECT"`
	VAPIDPublicKey  string `mapstructure:"vapid_public_key" envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key" envconfig:"VAPID_PRIVATE_KEY"`
	FanoutLimit     int    `mapstructure:"fanout_limit"`
	TTL             time.Duration
}

type DigestConfig struct {
	Enabled          bool         `mapstructure:"enabled"`
	DailyHour        int          `mapstructure:"daily_hour"`
	WeeklyWeekday    time.Weekday `mapstructure:"weekly_weekday"`
	WeeklyHour       int          `mapstructure:"weekly_hour"`
	MinNotifications int          `mapstructure:"min_notifications"`
	SendInterval     time.Duration `mapstructure:"send_interval"`
}

type DirectoryConfig struct {
	BaseURL  string        `mapstructure:"base_url" envconfig:"DIRECTORY_URL"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type CleanupConfig struct {
	SubscriptionMaxAge time.Duration `mapstructure:"subscription_max_age"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret" envconfig:"JWT_SECRET"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Presence   PresenceConfig   `mapstructure:"presence"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Push       PushConfig       `mapstructure:"push"`
	Digest     DigestConfig     `mapstructure:"digest"`
	Directory  DirectoryConfig  `mapstructure:"directory"`
	Cleanup    CleanupConfig    `mapstructure:"cleanup"`
	JWT        JWTConfig        `mapstructure:"jwt"`
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("server.health_port", 8081)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)

	viper.SetDefault("processing.batch_size", 10)
	viper.SetDefault("processing.poll_interval", 5*time.Second)
	viper.SetDefault("processing.default_max_attempts", 3)
	viper.SetDefault("processing.urgent_max_attempts", 5)
	viper.SetDefault("processing.retry_delays", []time.Duration{
		60 * time.Second, 300 * time.Second, 900 * time.Second, 3600 * time.Second,
	})

	viper.SetDefault("presence.offline_threshold_minutes", 15)

	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.pool_size", 5)
	viper.SetDefault("smtp.max_per_conn", 100)

	viper.SetDefault("push.fanout_limit", 8)

	viper.SetDefault("digest.enabled", true)
	viper.SetDefault("digest.daily_hour", 8)
	viper.SetDefault("digest.weekly_weekday", int(time.Monday))
	viper.SetDefault("digest.weekly_hour", 8)
	viper.SetDefault("digest.min_notifications", 3)
	viper.SetDefault("digest.send_interval", 100*time.Millisecond)

	viper.SetDefault("directory.timeout", 5*time.Second)
	viper.SetDefault("directory.cache_ttl", 5*time.Minute)

	viper.SetDefault("cleanup.subscription_max_age", 30*24*time.Hour)
}

// LoadConfig reads config.yml if present, applies defaults, then lets
// NOTIFIER_-prefixed environment variables override individual fields.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app/config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("notifier", &config); err != nil {
		return nil, fmt.Errorf("failed to process env overrides: %w", err)
	}

	config.Push.TTL = 24 * time.Hour

	return &config, nil
}
