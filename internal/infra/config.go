package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	WorkDir            string
	WorkerPollInterval time.Duration
	FFmpegPath         string

	StorageBackend string // "r2" or "local"
	StoragePath    string
	StorageBaseURL string

	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2Endpoint        string
	R2PublicBaseURL   string
	R2Region          string

	InstagramBaseURL   string
	InstagramUserAgent string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	TikTokClientKey    string
	TikTokClientSecret string
	TikTokRedirectURI  string
	TikTokAPIBaseURL   string
	TikTokAuthBaseURL  string
	TikTokScopes       string
	TikTokMockMode     bool

	CORSAllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		WorkDir:            os.Getenv("WORK_DIR"),
		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_SECONDS", 2)),
		FFmpegPath:         os.Getenv("FFMPEG_PATH"),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),

		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Bucket:          os.Getenv("R2_BUCKET_NAME"),
		R2Endpoint:        os.Getenv("R2_ENDPOINT_URL"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		R2Region:          getEnv("R2_REGION", "auto"),

		InstagramBaseURL:   getEnv("INSTAGRAM_BASE_URL", "https://www.instagram.com"),
		InstagramUserAgent: getEnv("INSTAGRAM_USER_AGENT", "Mozilla/5.0 (compatible; repost/1.0)"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		TikTokClientKey:    os.Getenv("TIKTOK_CLIENT_KEY"),
		TikTokClientSecret: os.Getenv("TIKTOK_CLIENT_SECRET"),
		TikTokRedirectURI:  getEnv("TIKTOK_REDIRECT_URI", "http://localhost:8080/api/tiktok/callback"),
		TikTokAPIBaseURL:   getEnv("TIKTOK_API_BASE_URL", "https://open.tiktokapis.com"),
		TikTokAuthBaseURL:  getEnv("TIKTOK_AUTH_BASE_URL", "https://www.tiktok.com/v2/auth/authorize/"),
		TikTokScopes:       getEnv("TIKTOK_SCOPES", "user.info.basic,video.publish"),
		TikTokMockMode:     getEnvBool("TIKTOK_MOCK_MODE", false),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.StorageBackend != "local" && cfg.StorageBackend != "r2" {
		return nil, fmt.Errorf("STORAGE_BACKEND must be %q or %q", "local", "r2")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
