package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings. URL, when
// set, replaces the discrete connection fields.
type DatabaseConfig struct {
	URL                string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	ConnectAttempts    int
}

// Endpoint is the host[:port] used in logs. It never includes credentials.
func (c DatabaseConfig) Endpoint() string {
	if c.URL != "" {
		if u, err := url.Parse(c.URL); err == nil {
			return u.Host
		}
		return ""
	}
	return c.Host
}

// KVConfig selects and configures the key-value backend.
// Backend is one of "postgres", "redis" or "memory".
type KVConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	Bucket          string
	UseSSL          bool
	MaxUploadBytes  int64
	SignedURLTTL    time.Duration
	FetchTimeout    time.Duration
	// ExtraImageHosts are host[:port] values besides Endpoint that serve
	// uploaded images, such as a CDN in front of the bucket.
	ExtraImageHosts []string
}

// ImageHosts lists the hosts an analyze request may reference.
func (c MinIOConfig) ImageHosts() []string {
	var hosts []string
	for _, h := range append([]string{c.Endpoint}, c.ExtraImageHosts...) {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// IdentityConfig points at the GoTrue-compatible identity provider.
// When JWTSecret is set, access tokens are verified locally instead of
// calling the provider on every request.
type IdentityConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
	Timeout        time.Duration
}

// ClassifierConfig holds the hosted classifier endpoint and credentials.
type ClassifierConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Enabled reports whether the classifier access token is configured.
func (c ClassifierConfig) Enabled() bool {
	return c.Token != ""
}

// DemoConfig describes the demo account created at startup.
type DemoConfig struct {
	Enabled  bool
	Email    string
	Password string
	Name     string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	APIPrefix  string
	Timezone   string
	LogLevel   string
	BodyLimit  int
	Database   DatabaseConfig
	KV         KVConfig
	MinIO      MinIOConfig
	Identity   IdentityConfig
	Classifier ClassifierConfig
	Demo       DemoConfig
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

const maxUploadBytes = 10 << 20

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:   getEnv("APP_HOST", "localhost:8080"),
		Port:      getEnv("PORT", "8080"),
		APIPrefix: getEnv("API_PREFIX", "/make-server-83197308"),
		Timezone:  getEnv("APP_TIMEZONE", "UTC"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		// multipart overhead on top of the image itself
		BodyLimit: getEnvInt("APP_BODY_LIMIT", maxUploadBytes+(1<<20)),
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnectAttempts:    getEnvInt("DB_CONNECT_ATTEMPTS", 5),
		},
		KV: KVConfig{
			Backend:       getEnv("KV_BACKEND", "postgres"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		MinIO: MinIOConfig{
			Endpoint:        getEnv("MINIO_ENDPOINT", ""),
			AccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:       getEnv("MINIO_SECRET_KEY", ""),
			Bucket:          getEnv("MINIO_BUCKET", "make-83197308-skin-scans"),
			UseSSL:          getEnvBool("MINIO_USE_SSL", false),
			MaxUploadBytes:  int64(getEnvInt("MINIO_MAX_UPLOAD_BYTES", maxUploadBytes)),
			SignedURLTTL:    getEnvDuration("STORAGE_SIGNED_URL_TTL", 365*24*time.Hour),
			FetchTimeout:    getEnvDuration("STORAGE_FETCH_TIMEOUT", 15*time.Second),
			ExtraImageHosts: strings.Split(getEnv("STORAGE_IMAGE_HOSTS", ""), ","),
		},
		Identity: IdentityConfig{
			URL:            getEnv("IDP_URL", ""),
			AnonKey:        getEnv("IDP_ANON_KEY", ""),
			ServiceRoleKey: getEnv("IDP_SERVICE_ROLE_KEY", ""),
			JWTSecret:      getEnv("AUTH_JWT_SECRET", ""),
			Timeout:        getEnvDuration("IDP_TIMEOUT", 5*time.Second),
		},
		Classifier: ClassifierConfig{
			URL:     getEnv("CLASSIFIER_URL", "https://avanniiii-skin-disease-classifier.hf.space/api/predict"),
			Token:   getEnv("HUGGINGFACE_API_TOKEN", ""),
			Timeout: getEnvDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
		},
		Demo: DemoConfig{
			Enabled:  getEnvBool("DEMO_ACCOUNT_ENABLED", true),
			Email:    getEnv("DEMO_EMAIL", "demo@skincare.ai"),
			Password: getEnv("DEMO_PASSWORD", "demo123456"),
			Name:     getEnv("DEMO_NAME", "Demo User"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}
