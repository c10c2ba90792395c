package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Model（推論バックエンド）
	ModelURL     string
	ModelName    string
	ModelTimeout time.Duration

	// Storage（アーティファクトストア）
	StorageBackend string // "filesystem" | "s3" | "memory"
	StorageRoot    string
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3KeyID        string
	S3Secret       string

	// Upload
	MaxUploadSize     int64
	AllowedExtensions []string

	// Session
	SessionMaxAge int

	// Rate Limit
	RateLimitGeneral int
	RateLimitDetect  int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.ModelURL = os.Getenv("MODEL_URL")
	if cfg.ModelURL == "" {
		missing = append(missing, "MODEL_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ModelName = getEnvString("MODEL_NAME", "deepfake")
	cfg.ModelTimeout = getEnvDuration("MODEL_TIMEOUT", 10*time.Second)
	cfg.StorageBackend = getEnvString("STORAGE_BACKEND", "filesystem")
	cfg.StorageRoot = getEnvString("STORAGE_ROOT", "./uploads")
	cfg.S3Endpoint = getEnvString("S3_ENDPOINT", "")
	cfg.S3Region = getEnvString("S3_REGION", "")
	cfg.S3Bucket = getEnvString("S3_BUCKET", "")
	cfg.S3KeyID = getEnvString("S3_KEY_ID", "")
	cfg.S3Secret = getEnvString("S3_SECRET", "")
	cfg.MaxUploadSize = getEnvInt64("MAX_UPLOAD_SIZE", 10*1024*1024)
	cfg.AllowedExtensions = getEnvStringList("ALLOWED_EXTENSIONS", []string{"png", "jpg", "jpeg", "gif", "webp"})
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitDetect = getEnvInt("RATE_LIMIT_DETECT", 20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate は設定値の組み合わせを検証する。
// S3バックエンド指定時は接続情報が揃っていることを必須とする。
func validate(cfg *Config) error {
	switch cfg.StorageBackend {
	case "filesystem", "memory":
		// 追加の必須項目なし
	case "s3":
		var missing []string
		if cfg.S3Endpoint == "" {
			missing = append(missing, "S3_ENDPOINT")
		}
		if cfg.S3Region == "" {
			missing = append(missing, "S3_REGION")
		}
		if cfg.S3Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
		if cfg.S3KeyID == "" {
			missing = append(missing, "S3_KEY_ID")
		}
		if cfg.S3Secret == "" {
			missing = append(missing, "S3_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("STORAGE_BACKEND=s3 requires: %v", missing)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND: %s", cfg.StorageBackend)
	}

	if cfg.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive: %d", cfg.MaxUploadSize)
	}
	if len(cfg.AllowedExtensions) == 0 {
		return fmt.Errorf("ALLOWED_EXTENSIONS must not be empty")
	}

	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvStringList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			list = append(list, p)
		}
	}
	return list
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
