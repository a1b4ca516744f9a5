package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultCoverURL is the placeholder cover assigned to books created without one.
const DefaultCoverURL = "https://www.shortandtweet.com/images/short-and-tweet-default-book-cover.jpg"

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	MySQLDSN   string
	ResetDB    bool

	RedisAddr    string
	RedisDB      int
	RedisPass    string
	BookCacheTTL time.Duration

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	CORSOrigin string

	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	S3PublicURL    string
	S3Folder       string

	DefaultCoverURL string
	MaxUploadBytes  int64

	LogLevel    string
	LogFormat   string
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/books?charset=utf8mb4&parseTime=True&loc=Local"),
		ResetDB:    getEnvBool("RESET_DB", false),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		BookCacheTTL: getEnvDuration("BOOK_CACHE_TTL", 5*time.Minute),

		JWTSecret:  getEnv("JWT_SECRET", "change-me"),
		JWTTTL:     getEnvDuration("JWT_TTL", 24*time.Hour),
		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		CORSOrigin: getEnv("CORS_ORIGIN", getEnv("REACT_APP_URL", "http://localhost:3000")),

		S3Bucket:       getEnv("S3_BUCKET", "book-covers"),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
		S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),
		S3Folder:       getEnv("S3_FOLDER", "pictures"),

		DefaultCoverURL: getEnv("DEFAULT_COVER_URL", DefaultCoverURL),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
