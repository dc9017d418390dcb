package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the FridgeWiz server.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"fridgewiz-server"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Database
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// S3 Storage
	AWSRegion          string `env:"AWS_REGION,notEmpty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID,notEmpty"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY,notEmpty"`
	S3Bucket           string `env:"S3_BUCKET_NAME,notEmpty"`
	S3Endpoint         string `env:"S3_ENDPOINT"` // optional S3-compatible endpoint
	CloudFrontDomain   string `env:"CLOUDFRONT_DOMAIN"`

	// Media ingestion
	MaxFileSize       int64    `env:"MAX_FILE_SIZE" envDefault:"10485760"` // 10 MiB
	AllowedImageTypes []string `env:"ALLOWED_IMAGE_TYPES" envSeparator:"," envDefault:"image/jpeg,image/png,image/webp,image/gif"`
	ImageFolder       string   `env:"IMAGE_FOLDER" envDefault:"recipe-images"`

	// Recipe generation
	OpenAIAPIKey        string        `env:"OPENAI_API_KEY,notEmpty"`
	OpenAIModel         string        `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	GenerationMaxTokens int           `env:"GENERATION_MAX_TOKENS" envDefault:"1500"`
	GenerationTimeout   time.Duration `env:"GENERATION_TIMEOUT" envDefault:"120s"`

	// Clerk identity provider
	ClerkJWKSURL       string `env:"CLERK_JWKS_URL,notEmpty"`
	ClerkIssuer        string `env:"CLERK_ISSUER"`
	ClerkSecretKey     string `env:"CLERK_SECRET_KEY,notEmpty"`
	ClerkAPIURL        string `env:"CLERK_API_URL" envDefault:"https://api.clerk.com"`
	ClerkWebhookSecret string `env:"CLERK_WEBHOOK_SECRET,notEmpty"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.AWSAccessKeyID = strings.TrimSpace(cfg.AWSAccessKeyID)
	cfg.AWSSecretAccessKey = strings.TrimSpace(cfg.AWSSecretAccessKey)
	cfg.CloudFrontDomain = strings.TrimSuffix(strings.TrimSpace(cfg.CloudFrontDomain), "/")
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedImageTypes) == 0 {
		return nil, fmt.Errorf("ALLOWED_IMAGE_TYPES must list at least one MIME type")
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AllowsMimeType reports whether the sniffed MIME type is accepted for upload.
func (c *Config) AllowsMimeType(mime string) bool {
	for _, allowed := range c.AllowedImageTypes {
		if strings.EqualFold(strings.TrimSpace(allowed), mime) {
			return true
		}
	}
	return false
}
