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
)

// Catalog storage backends.
const (
	CatalogBackendFile     = "file"
	CatalogBackendPostgres = "postgres"
	CatalogBackendRedis    = "redis"
)

type Config struct {
	Env  string
	Port int

	Database     DatabaseConfig
	Redis        RedisConfig
	Session      SessionConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Registration RegistrationConfig
	Catalog      CatalogConfig
	Search       SearchConfig
	Generation   GenerationConfig
	Approval     ApprovalConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	RunMigrations bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	Secret      string
	CookieName  string
	IdleTimeout time.Duration
	Secure      bool
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RegistrationConfig holds the per-role codes required to sign up.
type RegistrationConfig struct {
	StudentCode string
	TeacherCode string
}

// CatalogConfig selects where the keyword catalog lives.
type CatalogConfig struct {
	Backend  string
	FilePath string
	Seed     bool
	RedisKey string
}

// SearchConfig configures the image search provider.
type SearchConfig struct {
	Endpoint         string
	APIKey           string
	Timeout          time.Duration
	RandomCandidates int
	CacheTTL         time.Duration
}

// GenerationConfig configures the optional caption provider.
type GenerationConfig struct {
	Enabled bool
	APIKey  string
	Model   string
}

// ApprovalConfig toggles the teacher gate on keyword approval.
type ApprovalConfig struct {
	RequireTeacher bool
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

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		RunMigrations: v.GetBool("DB_RUN_MIGRATIONS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret:      v.GetString("SESSION_SECRET"),
		CookieName:  v.GetString("SESSION_COOKIE_NAME"),
		IdleTimeout: parseDuration(v.GetString("SESSION_IDLE_TIMEOUT"), 30*time.Minute),
		Secure:      v.GetBool("SESSION_COOKIE_SECURE"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 30*time.Minute),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Registration = RegistrationConfig{
		StudentCode: v.GetString("REGISTRATION_STUDENT_CODE"),
		TeacherCode: v.GetString("REGISTRATION_TEACHER_CODE"),
	}

	cfg.Catalog = CatalogConfig{
		Backend:  strings.ToLower(v.GetString("CATALOG_BACKEND")),
		FilePath: v.GetString("CATALOG_FILE"),
		Seed:     v.GetBool("CATALOG_SEED"),
		RedisKey: v.GetString("CATALOG_REDIS_KEY"),
	}

	candidates := v.GetInt("SEARCH_RANDOM_CANDIDATES")
	if candidates <= 0 {
		candidates = 10
	}
	cfg.Search = SearchConfig{
		Endpoint:         v.GetString("SEARCH_ENDPOINT"),
		APIKey:           v.GetString("SEARCH_API_KEY"),
		Timeout:          parseDuration(v.GetString("SEARCH_TIMEOUT"), 10*time.Second),
		RandomCandidates: candidates,
		CacheTTL:         parseDuration(v.GetString("SEARCH_CACHE_TTL"), 0),
	}

	cfg.Generation = GenerationConfig{
		Enabled: v.GetBool("ENABLE_CAPTIONS"),
		APIKey:  v.GetString("GENERATION_API_KEY"),
		Model:   v.GetString("GENERATION_MODEL"),
	}

	cfg.Approval = ApprovalConfig{
		RequireTeacher: v.GetBool("APPROVAL_REQUIRE_TEACHER"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "diagram_search")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_RUN_MIGRATIONS", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_session_secret_change_me_32b")
	v.SetDefault("SESSION_COOKIE_NAME", "diagram_session")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("SESSION_COOKIE_SECURE", false)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "30m")
	v.SetDefault("JWT_ISSUER", "diagram-search-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REGISTRATION_STUDENT_CODE", "student123")
	v.SetDefault("REGISTRATION_TEACHER_CODE", "teacher123")

	v.SetDefault("CATALOG_BACKEND", CatalogBackendFile)
	v.SetDefault("CATALOG_FILE", "topics.json")
	v.SetDefault("CATALOG_SEED", false)
	v.SetDefault("CATALOG_REDIS_KEY", "catalog:topics")

	v.SetDefault("SEARCH_ENDPOINT", "https://serpapi.com/search.json")
	v.SetDefault("SEARCH_API_KEY", "")
	v.SetDefault("SEARCH_TIMEOUT", "10s")
	v.SetDefault("SEARCH_RANDOM_CANDIDATES", 10)
	v.SetDefault("SEARCH_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_CAPTIONS", false)
	v.SetDefault("GENERATION_API_KEY", "")
	v.SetDefault("GENERATION_MODEL", "gemini-2.0-flash")

	v.SetDefault("APPROVAL_REQUIRE_TEACHER", true)
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
