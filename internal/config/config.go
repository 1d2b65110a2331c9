package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv     string
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret string

	RedisURL string

	// Push delivery
	PushProvider        string // "expo" or "fcm"
	PushQueue           bool   // route sends through the Redis stream worker
	ExpoPushURL         string
	FirebaseProjectID   string
	FirebaseClientEmail string
	FirebasePrivateKey  string

	// Object storage
	StorageProvider    string // "r2" or "gcs"
	R2AccountID        string
	R2AccessKeyID      string
	R2SecretAccessKey  string
	R2BucketName       string
	R2PublicURL        string
	GCSBucket          string
	GCSCredentialsFile string

	// Image generation
	ImageGenerator       string // "http" or "stock"
	ImageGeneratorURL    string
	ImageGeneratorAPIKey string
	StockImageURLs       []string

	NotifySelf bool

	PendingSweepSchedule string
	PendingMaxAge        time.Duration

	CreationRatePerMinute int
	WorkerCount           int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisURL: os.Getenv("REDIS_URL"),

		PushProvider:        strings.ToLower(getEnv("PUSH_PROVIDER", "expo")),
		PushQueue:           getBool("PUSH_QUEUE", false),
		ExpoPushURL:         os.Getenv("EXPO_PUSH_URL"),
		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseClientEmail: os.Getenv("FIREBASE_CLIENT_EMAIL"),
		FirebasePrivateKey:  os.Getenv("FIREBASE_PRIVATE_KEY"),

		StorageProvider:    strings.ToLower(getEnv("STORAGE_PROVIDER", "r2")),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:        os.Getenv("R2_PUBLIC_URL"),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),

		ImageGenerator:       strings.ToLower(getEnv("IMAGE_GENERATOR", "stock")),
		ImageGeneratorURL:    os.Getenv("IMAGE_GENERATOR_URL"),
		ImageGeneratorAPIKey: os.Getenv("IMAGE_GENERATOR_API_KEY"),
		StockImageURLs:       splitList(os.Getenv("STOCK_IMAGE_URLS")),

		NotifySelf: getBool("NOTIFY_SELF", true),

		PendingSweepSchedule: getEnv("PENDING_SWEEP_SCHEDULE", "@every 15m"),
		PendingMaxAge:        getDuration("PENDING_MAX_AGE", time.Hour),

		CreationRatePerMinute: getInt("CREATION_RATE_PER_MINUTE", 6),
		WorkerCount:           getInt("WORKER_COUNT", 2),
	}

	return cfg, nil
}

// IsDevelopment reports whether the process runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
