package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// Optional backing services. Empty values disable the feature with a
	// logged warning instead of failing startup.
	DatabaseURL string
	RedisAddr   string
	RedisDB     int

	// Image storage.
	StorageDriver  string // "filesystem" or "s3"
	StorageBaseDir string
	StorageBaseURL string
	S3Bucket       string

	// Face-enhancement provider.
	FaceEnhanceAPIKey   string
	FaceEnhanceBaseURL  string
	FaceEnhanceCooldown time.Duration

	// Body-regeneration provider.
	BodyRegenAPIKey   string
	BodyRegenBaseURL  string
	BodyRegenCooldown time.Duration
	BodyRegenModels   []string

	// Pipeline.
	TargetImageWidth  int
	TargetImageHeight int
	ProviderTimeout   time.Duration

	// Email.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	// HTTP front door.
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	DedupTTL         time.Duration
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Provider credentials are deliberately optional: a
// missing key disables that provider rather than the whole service.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisDB:     getEnvInt("REDIS_DB", 0),

		StorageDriver:  getEnv("STORAGE_DRIVER", "filesystem"),
		StorageBaseDir: getEnv("STORAGE_BASE_DIR", "./data/assets"),
		StorageBaseURL: os.Getenv("STORAGE_BASE_URL"),
		S3Bucket:       os.Getenv("S3_BUCKET"),

		FaceEnhanceAPIKey:   os.Getenv("SEGMIND_API_KEY"),
		FaceEnhanceBaseURL:  getEnv("SEGMIND_BASE_URL", "https://api.segmind.com/v1"),
		FaceEnhanceCooldown: time.Second * time.Duration(getEnvInt("FACE_COOLDOWN_SECONDS", 3600)),

		BodyRegenAPIKey:   os.Getenv("GETIMG_API_KEY"),
		BodyRegenBaseURL:  getEnv("GETIMG_BASE_URL", "https://api.getimg.ai/v1"),
		BodyRegenCooldown: time.Second * time.Duration(getEnvInt("BODY_COOLDOWN_SECONDS", 1800)),
		BodyRegenModels:   getEnvList("GETIMG_MODELS"),

		TargetImageWidth:  getEnvInt("TARGET_IMAGE_WIDTH", 512),
		TargetImageHeight: getEnvInt("TARGET_IMAGE_HEIGHT", 512),
		ProviderTimeout:   time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 45)),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 465),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		DedupTTL:         time.Second * time.Duration(getEnvInt("DEDUP_TTL_SECONDS", 86400)),
		AllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
