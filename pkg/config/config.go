package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Cache         CacheConfig
	Summary       SummaryConfig
	Backfill      BackfillConfig
	Migrations    MigrationsConfig
	AcademicModel AcademicModelConfig
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

	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedHeaders []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs the Redis-backed read caches.
type CacheConfig struct {
	Enabled        bool
	SettingsTTL    time.Duration
	PerformanceTTL time.Duration
	SummaryTTL     time.Duration
}

// SummaryConfig configures the natural-language performance summary generator.
// When Enabled is false or APIKey is empty the rule-based fallback is used.
type SummaryConfig struct {
	Enabled         bool
	APIKey          string
	Model           string
	Endpoint        string
	APIVersion      string
	Timeout         time.Duration
	MaxOutputTokens int
	Temperature     float64
}

// BackfillConfig tunes the academic-model backfill runner.
type BackfillConfig struct {
	BatchSize int
}

// MigrationsConfig controls schema migration on boot.
type MigrationsConfig struct {
	AutoMigrate bool
}

// AcademicModelConfig controls how the preferred academic model is advertised to clients.
type AcademicModelConfig struct {
	Header       string
	DetectionTTL time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDuration(v.GetString("DB_CONN_MAX_IDLE_TIME"), 30*time.Minute),
		ConnectTimeout:  parseDuration(v.GetString("DB_CONNECT_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		AllowedHeaders: splitAndTrim(v.GetString("ALLOWED_HEADERS")),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:        v.GetBool("ENABLE_CACHE"),
		SettingsTTL:    parseDuration(v.GetString("SETTINGS_CACHE_TTL"), 10*time.Minute),
		PerformanceTTL: parseDuration(v.GetString("PERFORMANCE_CACHE_TTL"), 5*time.Minute),
		SummaryTTL:     parseDuration(v.GetString("SUMMARY_CACHE_TTL"), time.Hour),
	}

	cfg.Summary = SummaryConfig{
		Enabled:         v.GetBool("ENABLE_AI_SUMMARY"),
		APIKey:          v.GetString("GEMINI_API_KEY"),
		Model:           v.GetString("GEMINI_MODEL"),
		Endpoint:        v.GetString("GEMINI_ENDPOINT"),
		APIVersion:      v.GetString("GEMINI_API_VERSION"),
		Timeout:         parseDuration(v.GetString("AI_SUMMARY_TIMEOUT"), 15*time.Second),
		MaxOutputTokens: v.GetInt("AI_SUMMARY_MAX_TOKENS"),
		Temperature:     v.GetFloat64("AI_SUMMARY_TEMPERATURE"),
	}

	cfg.Backfill = BackfillConfig{
		BatchSize: v.GetInt("BACKFILL_BATCH_SIZE"),
	}

	cfg.Migrations = MigrationsConfig{
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),
	}

	cfg.AcademicModel = AcademicModelConfig{
		Header:       v.GetString("ACADEMIC_MODEL_HEADER"),
		DetectionTTL: parseDuration(v.GetString("ACADEMIC_MODEL_CACHE_TTL"), 30*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env == EnvProduction && (c.JWT.Secret == "" || c.JWT.Secret == "dev_secret") {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Backfill.BatchSize <= 0 {
		return errors.New("BACKFILL_BATCH_SIZE must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "performance_analyzer")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "30m")
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-ID")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("SETTINGS_CACHE_TTL", "10m")
	v.SetDefault("PERFORMANCE_CACHE_TTL", "5m")
	v.SetDefault("SUMMARY_CACHE_TTL", "1h")

	v.SetDefault("ENABLE_AI_SUMMARY", false)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-pro")
	v.SetDefault("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/")
	v.SetDefault("GEMINI_API_VERSION", "v1beta")
	v.SetDefault("AI_SUMMARY_TIMEOUT", "15s")
	v.SetDefault("AI_SUMMARY_MAX_TOKENS", 300)
	v.SetDefault("AI_SUMMARY_TEMPERATURE", 0.7)

	v.SetDefault("BACKFILL_BATCH_SIZE", 500)
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("ACADEMIC_MODEL_HEADER", "X-Academic-Model")
	v.SetDefault("ACADEMIC_MODEL_CACHE_TTL", "30s")
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
