// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server and worker read from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL string

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	StorageBackend string
	StorageBucket  string
	MongoURI       string
	MongoDatabase  string

	SanityProjectID string
	SanityDataset   string

	AMQPURL        string
	EventsExchange string

	CORSOrigins []string

	UploadTimeout     time.Duration
	UploadMaxBytes    int64
	UploadKeyTemplate string
	UploadRatePerSec  float64
	UploadBurst       int

	CacheMaxCost int64
	CacheTTL     time.Duration
}

// LoadDotEnv loads a .env file when present. A missing file is not an error.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getenv("PORT", "8080"),
		Environment:        getenv("ENVIRONMENT", "development"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		DatabaseURL:        databaseURL(),
		SupabaseURL:        strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseJWTSecret:  os.Getenv("SUPABASE_JWT_SECRET"),
		StorageBackend:     getenv("STORAGE_BACKEND", "supabase"),
		StorageBucket:      getenv("STORAGE_BUCKET", "images"),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDatabase:      getenv("MONGO_DATABASE", "catalog"),
		SanityProjectID:    os.Getenv("SANITY_PROJECT_ID"),
		SanityDataset:      getenv("SANITY_DATASET", "production"),
		AMQPURL:            os.Getenv("AMQP_URL"),
		EventsExchange:     getenv("EVENTS_EXCHANGE", "catalog.events"),
		CORSOrigins:        splitCSV(getenv("CORS_ORIGINS", "http://localhost:3000")),
		UploadKeyTemplate:  os.Getenv("UPLOAD_KEY_TEMPLATE"),
	}

	var err error
	if cfg.UploadTimeout, err = durationEnv("UPLOAD_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.UploadMaxBytes, err = int64Env("UPLOAD_MAX_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if cfg.CacheMaxCost, err = int64Env("CACHE_MAX_COST", 64<<20); err != nil {
		return nil, err
	}
	if cfg.UploadRatePerSec, err = floatEnv("UPLOAD_RATE_PER_SEC", 1); err != nil {
		return nil, err
	}
	burst, err := int64Env("UPLOAD_BURST", 5)
	if err != nil {
		return nil, err
	}
	cfg.UploadBurst = int(burst)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL or DB_HOST/DB_NAME is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("config: SUPABASE_JWT_SECRET is required")
	}
	switch c.StorageBackend {
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("config: SUPABASE_URL and SUPABASE_SERVICE_KEY are required for supabase storage")
		}
	case "gridfs":
		if c.MongoURI == "" {
			return fmt.Errorf("config: MONGO_URI is required for gridfs storage")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// WorkerConfig is what cmd/worker needs: a database and a broker.
type WorkerConfig struct {
	Environment string
	LogLevel    string

	DatabaseURL string

	AMQPURL        string
	EventsExchange string
	Prefetch       int
}

// LoadWorker reads the worker configuration. Auth, storage and upload keys
// are not read.
func LoadWorker() (*WorkerConfig, error) {
	cfg := &WorkerConfig{
		Environment:    getenv("ENVIRONMENT", "development"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		DatabaseURL:    databaseURL(),
		AMQPURL:        os.Getenv("AMQP_URL"),
		EventsExchange: getenv("EVENTS_EXCHANGE", "catalog.events"),
	}
	prefetch, err := int64Env("WORKER_PREFETCH", 16)
	if err != nil {
		return nil, err
	}
	if prefetch <= 0 {
		return nil, fmt.Errorf("config: WORKER_PREFETCH must be positive")
	}
	cfg.Prefetch = int(prefetch)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL or DB_HOST/DB_NAME is required")
	}
	if cfg.AMQPURL == "" {
		return nil, fmt.Errorf("config: AMQP_URL is required for the worker")
	}
	return cfg, nil
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* variables.
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_NAME")
	if host == "" || name == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		host, getenv("DB_PORT", "5432"), name, getenv("DB_SSLMODE", "disable"),
	)
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func int64Env(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}
