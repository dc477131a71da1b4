package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// WebsiteBaseURL is the public base URL of this backend. Deployed sites
	// post their callbacks here.
	WebsiteBaseURL string

	SessionSigningKey string
	AccessTokenTTL    time.Duration

	OTLPEndpoint string

	AI      AIConfig
	Hosting HostingConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Archive ArchiveConfig
	SMTP    SMTPConfig

	RateLimit RateLimitConfig

	// Bootstrap seeds a first owner on startup when both fields are set.
	Bootstrap BootstrapConfig

	PublishLockTTL    time.Duration
	ReconcileInterval time.Duration
	QRLogoDir         string

	DBConnectionURI   string
	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

type AIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

type HostingConfig struct {
	APIKey  string
	BaseURL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c ArchiveConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// RateLimitConfig bounds anonymous site callbacks per site and client IP.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

func (c RateLimitConfig) Enabled() bool {
	return c.PerSecond > 0 && c.Burst > 0
}

type BootstrapConfig struct {
	OwnerEmail    string
	OwnerPassword string
}

func (c BootstrapConfig) Enabled() bool {
	return strings.TrimSpace(c.OwnerEmail) != "" && c.OwnerPassword != ""
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "breakeven"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		WebsiteBaseURL:    strings.TrimRight(getenv("WEBSITE_BASE_URL", "http://localhost:8080"), "/"),
		SessionSigningKey: strings.TrimSpace(getenv("SESSION_SIGNING_KEY", "")),
		AccessTokenTTL:    getenvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		AI: AIConfig{
			APIKey:      strings.TrimSpace(getenv("AI_TEXT_API_KEY", "")),
			BaseURL:     strings.TrimRight(getenv("AI_TEXT_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"), "/"),
			Model:       getenv("AI_TEXT_MODEL", "gemini-1.5-flash"),
			Temperature: getenvFloat("AI_TEXT_TEMPERATURE", 0.7),
			MaxTokens:   getenvInt("AI_TEXT_MAX_TOKENS", 2048),
		},
		Hosting: HostingConfig{
			APIKey:  strings.TrimSpace(getenv("HOSTING_API_KEY", "")),
			BaseURL: strings.TrimRight(getenv("HOSTING_BASE_URL", "https://api.netlify.com/api/v1"), "/"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getenv("KAFKA_BROKERS", "")),
			Topic:   getenv("KAFKA_INTERACTION_TOPIC", "site.interactions"),
		},
		Archive: ArchiveConfig{
			Endpoint:  strings.TrimSpace(getenv("ARCHIVE_ENDPOINT", "")),
			AccessKey: strings.TrimSpace(getenv("ARCHIVE_ACCESS_KEY", "")),
			SecretKey: strings.TrimSpace(getenv("ARCHIVE_SECRET_KEY", "")),
			Bucket:    strings.TrimSpace(getenv("ARCHIVE_BUCKET", "")),
			UseSSL:    getenvBool("ARCHIVE_USE_SSL", true),
		},
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(getenv("SMTP_HOST", "")),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "no-reply@localhost"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: getenvFloat("RATE_LIMIT_SITE_PER_SECOND", 1),
			Burst:     getenvInt("RATE_LIMIT_SITE_BURST", 10),
		},
		Bootstrap: BootstrapConfig{
			OwnerEmail:    strings.TrimSpace(getenv("BOOTSTRAP_OWNER_EMAIL", "")),
			OwnerPassword: getenv("BOOTSTRAP_OWNER_PASSWORD", ""),
		},
		PublishLockTTL:    getenvDuration("PUBLISH_LOCK_TTL", 3*time.Minute),
		ReconcileInterval: getenvDuration("RECONCILE_INTERVAL", time.Minute),
		QRLogoDir:         strings.TrimSpace(getenv("QR_LOGO_DIR", "")),
		DBConnectionURI:   strings.TrimSpace(getenv("DB_CONNECTION_URI", "")),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "breakeven"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

// getenvDuration accepts Go durations ("90s") or bare seconds ("90").
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
