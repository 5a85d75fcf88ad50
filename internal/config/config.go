package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Mail    MailConfig    `yaml:"mail"`
	Media   MediaConfig   `yaml:"media"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// StorageConfig holds submission storage configuration.
// Provider selects the backend: "dynamodb", "postgres", or empty to run
// without persistence (degraded mode).
type StorageConfig struct {
	Provider       string      `yaml:"provider"`
	DynamoDBTable  string      `yaml:"dynamodb_table"`
	AWSRegion      string      `yaml:"aws_region"`
	AWSProfile     string      `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	DatabaseURL    string      `yaml:"database_url"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	Cache          CacheConfig `yaml:"cache"`
}

// Enabled reports whether a storage backend is configured.
func (c StorageConfig) Enabled() bool {
	return c.Provider != ""
}

// Timeout returns the configured per-operation timeout as a duration
func (c StorageConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "" // Running on ECS or Lambda, use IAM role
	}
	return c.AWSProfile
}

// CacheConfig holds the optional Redis cache for recent submissions.
// Leave Addr empty to disable.
type CacheConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Recent   int    `yaml:"recent"` // how many submissions the recent list keeps
}

// MailConfig holds notification mail configuration.
// Provider selects the transport: "ses", "smtp", or empty to disable
// notifications.
type MailConfig struct {
	Provider string     `yaml:"provider"`
	From     string     `yaml:"from"`
	To       string     `yaml:"to"`
	SES      SESConfig  `yaml:"ses"`
	SMTP     SMTPConfig `yaml:"smtp"`
}

// Enabled reports whether a mail transport is configured. A provider
// without both endpoint addresses cannot send, so it does not count.
func (c MailConfig) Enabled() bool {
	return c.Provider != "" && c.From != "" && c.To != ""
}

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SMTPConfig holds SMTP relay configuration
type SMTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SMTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MediaConfig holds upload proxy configuration.
// Provider selects the media host: "s3", "relay", or empty to disable
// the upload route.
type MediaConfig struct {
	Provider string           `yaml:"provider"`
	S3       MediaS3Config    `yaml:"s3"`
	Relay    MediaRelayConfig `yaml:"relay"`
}

// Enabled reports whether a media host is configured.
func (c MediaConfig) Enabled() bool {
	return c.Provider != ""
}

// MediaS3Config holds the S3-backed media host settings
type MediaS3Config struct {
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	AWSProfile string `yaml:"aws_profile"`
	CDNDomain  string `yaml:"cdn_domain"` // public domain for uploaded files; bucket URL if empty
	Variants   bool   `yaml:"variants"`   // generate resized JPEG variants for images
}

// MediaRelayConfig holds the pass-through media host settings
type MediaRelayConfig struct {
	URL            string `yaml:"url"`
	AuthToken      string `yaml:"auth_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the configured timeout as a duration
func (c MediaRelayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	setDefaults(&cfg)
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "./web/dist"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"https://*", "http://*"}
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-east-1"
	}
	if cfg.Storage.TimeoutSeconds == 0 {
		cfg.Storage.TimeoutSeconds = 10
	}
	if cfg.Storage.Cache.Recent == 0 {
		cfg.Storage.Cache.Recent = 100
	}
	if cfg.Mail.SES.Region == "" {
		cfg.Mail.SES.Region = "us-east-1"
	}
	if cfg.Mail.SES.TimeoutSeconds == 0 {
		cfg.Mail.SES.TimeoutSeconds = 30
	}
	if cfg.Mail.SMTP.Port == 0 {
		cfg.Mail.SMTP.Port = 587
	}
	if cfg.Mail.SMTP.TimeoutSeconds == 0 {
		cfg.Mail.SMTP.TimeoutSeconds = 30
	}
	if cfg.Media.S3.Region == "" {
		cfg.Media.S3.Region = "us-east-1"
	}
	if cfg.Media.Relay.TimeoutSeconds == 0 {
		cfg.Media.Relay.TimeoutSeconds = 30
	}
	if cfg.Media.Relay.MaxRetries == 0 {
		cfg.Media.Relay.MaxRetries = 3
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
// A missing config file is not an error: the service can run entirely
// from environment variables.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = &Config{}
		setDefaults(cfg)
	} else if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		cfg.Server.StaticDir = dir
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitAndTrim(origins)
	}

	if provider := os.Getenv("STORAGE_PROVIDER"); provider != "" {
		cfg.Storage.Provider = provider
	}
	if table := os.Getenv("DYNAMODB_TABLE"); table != "" {
		cfg.Storage.DynamoDBTable = table
		if cfg.Storage.Provider == "" {
			cfg.Storage.Provider = "dynamodb"
		}
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Storage.AWSRegion = region
	}
	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Storage.DatabaseURL = dbURL
		if cfg.Storage.Provider == "" {
			cfg.Storage.Provider = "postgres"
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Storage.Cache.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Storage.Cache.Password = pw
	}

	if provider := os.Getenv("MAIL_PROVIDER"); provider != "" {
		cfg.Mail.Provider = provider
	}
	if from := os.Getenv("MAIL_FROM"); from != "" {
		cfg.Mail.From = from
	}
	if to := os.Getenv("MAIL_TO"); to != "" {
		cfg.Mail.To = to
	}
	if accessKey := os.Getenv("AWS_SES_ACCESS_KEY"); accessKey != "" {
		cfg.Mail.SES.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SES_SECRET_KEY"); secretKey != "" {
		cfg.Mail.SES.SecretKey = secretKey
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.Mail.SES.Region = region
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		cfg.Mail.SMTP.Host = host
		if cfg.Mail.Provider == "" {
			cfg.Mail.Provider = "smtp"
		}
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Mail.SMTP.Port = p
		}
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		cfg.Mail.SMTP.Username = user
	}
	if pw := os.Getenv("SMTP_PASSWORD"); pw != "" {
		cfg.Mail.SMTP.Password = pw
	}

	if provider := os.Getenv("MEDIA_PROVIDER"); provider != "" {
		cfg.Media.Provider = provider
	}
	if bucket := os.Getenv("MEDIA_S3_BUCKET"); bucket != "" {
		cfg.Media.S3.Bucket = bucket
		if cfg.Media.Provider == "" {
			cfg.Media.Provider = "s3"
		}
	}
	if region := os.Getenv("MEDIA_S3_REGION"); region != "" {
		cfg.Media.S3.Region = region
	}
	if domain := os.Getenv("MEDIA_CDN_DOMAIN"); domain != "" {
		cfg.Media.S3.CDNDomain = domain
	}
	if url := os.Getenv("MEDIA_RELAY_URL"); url != "" {
		cfg.Media.Relay.URL = url
		if cfg.Media.Provider == "" {
			cfg.Media.Provider = "relay"
		}
	}
	if token := os.Getenv("MEDIA_RELAY_TOKEN"); token != "" {
		cfg.Media.Relay.AuthToken = token
	}

	return cfg, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
