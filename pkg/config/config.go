package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Store     string

	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	S3        S3Config
	Sessions  SessionConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Discovery DiscoveryConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// MongoConfig points the document-store backend at a database.
type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// S3Config configures the avatar bucket. An empty bucket disables URL resolution.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	URLTTL          time.Duration
}

// SessionConfig governs discovery session handles and idle expiry.
type SessionConfig struct {
	Secret        string
	TTL           time.Duration
	SweepInterval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig throttles discovery requests per client. A zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type LogConfig struct {
	Level  string
	Format string
}

// DiscoveryConfig tunes the scan-ahead pager and its collaborators.
type DiscoveryConfig struct {
	PageSize        int
	FirstLoadScan   int
	ScrollScan      int
	FetchTimeout    time.Duration
	BookingLookback time.Duration
	PageCacheTTL    time.Duration
	TimeZone        string
	PrefetchWorkers int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Store = strings.ToLower(v.GetString("STORE_BACKEND"))
	if cfg.Store != StoreMongo {
		cfg.Store = StorePostgres
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Mongo = MongoConfig{
		URI:      v.GetString("MONGO_URI"),
		Database: v.GetString("MONGO_DATABASE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_PAGE_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.S3 = S3Config{
		Endpoint:        v.GetString("S3_ENDPOINT"),
		Region:          v.GetString("S3_REGION"),
		AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
		SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		BucketName:      v.GetString("S3_BUCKET"),
		URLTTL:          parseDuration(v.GetString("S3_URL_TTL"), 15*time.Minute),
	}

	cfg.Sessions = SessionConfig{
		Secret:        v.GetString("SESSION_SECRET"),
		TTL:           parseDuration(v.GetString("SESSION_TTL"), 30*time.Minute),
		SweepInterval: parseDuration(v.GetString("SESSION_SWEEP_INTERVAL"), time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		Burst: v.GetInt("RATE_LIMIT_BURST"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Discovery = DiscoveryConfig{
		PageSize:        v.GetInt("DISCOVERY_PAGE_SIZE"),
		FirstLoadScan:   v.GetInt("DISCOVERY_FIRST_LOAD_SCAN_PAGES"),
		ScrollScan:      v.GetInt("DISCOVERY_SCROLL_SCAN_PAGES"),
		FetchTimeout:    parseDuration(v.GetString("DISCOVERY_FETCH_TIMEOUT"), 8*time.Second),
		BookingLookback: parseDuration(v.GetString("DISCOVERY_BOOKING_LOOKBACK"), 180*24*time.Hour),
		PageCacheTTL:    parseDuration(v.GetString("DISCOVERY_PAGE_CACHE_TTL"), 30*time.Second),
		TimeZone:        v.GetString("DISCOVERY_TIMEZONE"),
		PrefetchWorkers: v.GetInt("DISCOVERY_PREFETCH_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("STORE_BACKEND", StorePostgres)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "trainer_marketplace")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "trainer_marketplace")

	v.SetDefault("ENABLE_PAGE_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_REGION", "eu-central-1")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_URL_TTL", "15m")

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DISCOVERY_PAGE_SIZE", 12)
	v.SetDefault("DISCOVERY_FIRST_LOAD_SCAN_PAGES", 5)
	v.SetDefault("DISCOVERY_SCROLL_SCAN_PAGES", 3)
	v.SetDefault("DISCOVERY_FETCH_TIMEOUT", "8s")
	v.SetDefault("DISCOVERY_BOOKING_LOOKBACK", "4320h")
	v.SetDefault("DISCOVERY_PAGE_CACHE_TTL", "30s")
	v.SetDefault("DISCOVERY_TIMEZONE", "Europe/Athens")
	v.SetDefault("DISCOVERY_PREFETCH_WORKERS", 2)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
