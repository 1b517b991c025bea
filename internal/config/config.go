package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	GitHub     GitHubConfig
	Cloudinary CloudinaryConfig
	Email      EmailConfig
	Blob       BlobConfig
	Redis      RedisConfig
	MinIO      MinIOConfig
	MongoDB    MongoDBConfig
	Analytics  AnalyticsConfig
	RateLimit  RateLimitConfig
	LogLevel   string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether diagnostic details must be withheld from
// error responses.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

type GitHubConfig struct {
	Token  string
	Owner  string
	Repo   string
	Branch string
	APIURL string
	// MenusCacheTTL bounds how long cached menus hide edits made outside
	// the admin API.
	MenusCacheTTL time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	APIURL    string
}

type EmailConfig struct {
	ResendAPIKey string
	AdminEmail   string
	FromEmail    string
}

type BlobConfig struct {
	Backend string // memory | redis | minio | mongo
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type AnalyticsConfig struct {
	CacheTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file.
// Secrets are optional at load time: handlers that need a missing one answer
// 503 instead of the process refusing to start.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8888")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("GITHUB_BRANCH", "main")
	viper.SetDefault("GITHUB_API_URL", "https://api.github.com/")
	viper.SetDefault("MENUS_CACHE_TTL", 300)
	viper.SetDefault("CLOUDINARY_API_URL", "https://api.cloudinary.com")
	viper.SetDefault("BLOB_BACKEND", "memory")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("MINIO_BUCKET", "blogdesk")
	viper.SetDefault("MONGODB_DATABASE", "blogdesk")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("ANALYTICS_CACHE_TTL", 30)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 1.0)
	viper.SetDefault("RATE_LIMIT_BURST", 5)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		GitHub: GitHubConfig{
			Token:  viper.GetString("GITHUB_TOKEN"),
			Owner:  viper.GetString("GITHUB_OWNER"),
			Repo:   viper.GetString("GITHUB_REPO"),
			Branch: viper.GetString("GITHUB_BRANCH"),
			APIURL: viper.GetString("GITHUB_API_URL"),

			MenusCacheTTL: time.Duration(viper.GetInt("MENUS_CACHE_TTL")) * time.Second,
		},
		Cloudinary: CloudinaryConfig{
			CloudName: viper.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:    viper.GetString("CLOUDINARY_API_KEY"),
			APISecret: viper.GetString("CLOUDINARY_API_SECRET"),
			APIURL:    viper.GetString("CLOUDINARY_API_URL"),
		},
		Email: EmailConfig{
			ResendAPIKey: viper.GetString("RESEND_API_KEY"),
			AdminEmail:   viper.GetString("ADMIN_EMAIL"),
			FromEmail:    viper.GetString("FROM_EMAIL"),
		},
		Blob: BlobConfig{
			Backend: strings.ToLower(viper.GetString("BLOB_BACKEND")),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: viper.GetString("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Analytics: AnalyticsConfig{
			CacheTTL: time.Duration(viper.GetInt("ANALYTICS_CACHE_TTL")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	return cfg, nil
}
