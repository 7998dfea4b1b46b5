package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	MediaDriverLocal      = "local"
	MediaDriverCloudinary = "cloudinary"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	AdminEmail    string
	AdminPassword string
}

type MediaConfig struct {
	Driver         string
	UploadDir      string
	MaxUploadBytes int64
	CloudinaryURL  string
	CloudinaryDir  string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	ReportTTL time.Duration
}

type AMQPConfig struct {
	URL         string
	Queue       string
	DialTimeout time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Media       MediaConfig
	Redis       RedisConfig
	AMQP        AMQPConfig
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:     v.GetDuration("JWT_ACCESS_TTL"),
			AdminEmail:    v.GetString("ADMIN_EMAIL"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
		},
		Media: MediaConfig{
			Driver:         v.GetString("MEDIA_DRIVER"),
			UploadDir:      v.GetString("MEDIA_UPLOAD_DIR"),
			MaxUploadBytes: v.GetInt64("MEDIA_MAX_UPLOAD_BYTES"),
			CloudinaryURL:  v.GetString("CLOUDINARY_URL"),
			CloudinaryDir:  v.GetString("CLOUDINARY_FOLDER"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("REDIS_ADDR"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			ReportTTL: v.GetDuration("REPORT_CACHE_TTL"),
		},
		AMQP: AMQPConfig{
			URL:         v.GetString("AMQP_URL"),
			Queue:       v.GetString("AMQP_QUEUE"),
			DialTimeout: v.GetDuration("AMQP_DIAL_TIMEOUT"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Auth.AccessTTL <= 0 {
		cfg.Auth.AccessTTL = 24 * time.Hour
	}
	if cfg.Media.Driver == "" {
		cfg.Media.Driver = MediaDriverLocal
	}
	if cfg.Media.UploadDir == "" {
		cfg.Media.UploadDir = "uploads"
	}
	if cfg.Media.MaxUploadBytes <= 0 {
		cfg.Media.MaxUploadBytes = 10 << 20
	}
	if cfg.Media.CloudinaryDir == "" {
		cfg.Media.CloudinaryDir = "complaints"
	}
	if cfg.Redis.ReportTTL <= 0 {
		cfg.Redis.ReportTTL = time.Minute
	}
	if cfg.AMQP.Queue == "" {
		cfg.AMQP.Queue = "complaint.events"
	}
	if cfg.AMQP.DialTimeout <= 0 {
		cfg.AMQP.DialTimeout = 3 * time.Second
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	switch cfg.Media.Driver {
	case MediaDriverLocal:
	case MediaDriverCloudinary:
		if cfg.Media.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required when MEDIA_DRIVER=cloudinary")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_DRIVER %q", cfg.Media.Driver)
	}
	return nil
}
