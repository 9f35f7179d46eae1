package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Draft store backends.
const (
	DraftStoreMemory = "memory"
	DraftStoreRedis  = "redis"
	DraftStoreMongo  = "mongo"
)

const insecureDefaultSecret = "your-very-secret-key-for-listing-wizard"

// Config holds all configuration for the service.
type Config struct {
	ServiceName           string `mapstructure:"SERVICE_NAME"`
	HTTPPort              string `mapstructure:"HTTP_PORT"`
	PrometheusMetricsPort string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`

	CollaboratorBaseURL string        `mapstructure:"COLLABORATOR_BASE_URL"`
	CollaboratorTimeout time.Duration `mapstructure:"COLLABORATOR_TIMEOUT"`

	DraftStore     string        `mapstructure:"DRAFT_STORE"`
	DraftTTL       time.Duration `mapstructure:"DRAFT_TTL"`
	SessionIdleTTL time.Duration `mapstructure:"SESSION_IDLE_TTL"`

	// SessionCookieSecure marks the session cookie Secure; enable behind TLS.
	SessionCookieSecure bool `mapstructure:"SESSION_COOKIE_SECURE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	NATSURL string `mapstructure:"NATS_URL"`

	MinIOEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket    string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPSender   string `mapstructure:"SMTP_SENDER_EMAIL"`

	GeocodingBaseURL string `mapstructure:"GEOCODING_BASE_URL"`
	GeocodingAPIKey  string `mapstructure:"GEOCODING_API_KEY"`

	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "listing-wizard")
	v.SetDefault("HTTP_PORT", "8085")
	v.SetDefault("PROMETHEUS_METRICS_PORT", "9095")
	v.SetDefault("JWT_SECRET", insecureDefaultSecret)

	v.SetDefault("COLLABORATOR_BASE_URL", "http://localhost:3000")
	v.SetDefault("COLLABORATOR_TIMEOUT", "15s")

	v.SetDefault("DRAFT_STORE", DraftStoreMemory)
	v.SetDefault("DRAFT_TTL", "168h")
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("SESSION_COOKIE_SECURE", false)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "listing_wizard")

	v.SetDefault("NATS_URL", "")

	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "listings-photos")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_SENDER_EMAIL", "")

	v.SetDefault("GEOCODING_BASE_URL", "https://maps.googleapis.com")
	v.SetDefault("GEOCODING_API_KEY", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

// LoadConfig reads configuration from environment variables. godotenv is
// expected to have populated the environment from .env already.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}
	cfg.DraftStore = strings.ToLower(strings.TrimSpace(cfg.DraftStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == insecureDefaultSecret {
		appLogger.Warn("JWT_SECRET is set to its default insecure value. Please set a strong secret in your environment.")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("collaborator_base_url", cfg.CollaboratorBaseURL),
		zap.String("draft_store", cfg.DraftStore),
		zap.Duration("draft_ttl", cfg.DraftTTL),
		zap.Bool("nats_enabled", cfg.NATSURL != ""),
		zap.Bool("minio_enabled", cfg.MinIOEndpoint != ""),
		zap.Bool("smtp_enabled", cfg.SMTPHost != ""),
		zap.Bool("geocoding_key_present", cfg.GeocodingAPIKey != ""),
		zap.String("otel_endpoint", cfg.OTExporterOTLPEndpoint),
	)
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.CollaboratorBaseURL == "" {
		return fmt.Errorf("COLLABORATOR_BASE_URL is not set")
	}
	switch c.DraftStore {
	case DraftStoreMemory, DraftStoreRedis, DraftStoreMongo:
	default:
		return fmt.Errorf("unknown DRAFT_STORE %q (want memory, redis or mongo)", c.DraftStore)
	}
	if c.DraftStore == DraftStoreMongo && c.MongoDatabase == "" {
		return fmt.Errorf("MONGO_DATABASE is required when DRAFT_STORE=mongo")
	}
	return nil
}
