package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
	}

	// Auth configuration
	Auth struct {
		Enabled     bool
		JWTSecret   string
		JWTExpiry   time.Duration
		OperatorKey string
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Chat holds the conversation context manager settings
	Chat struct {
		GenerateTimeout  time.Duration
		SummarizeTimeout time.Duration
		DefaultModel     string
	}

	// Models holds generation backend endpoints and keys
	Models struct {
		GoogleAPIKey  string
		GeminiModel   string
		LocalModelURL string
	}

	// Cache settings
	Cache struct {
		Enabled   bool
		TTL       time.Duration
		MaxSize   int
		RedisAddr string
	}

	// Validation settings
	Validation struct {
		Enabled    bool
		SchemaPath string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "npc_chatlab")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)

		// Auth config
		instance.Auth.Enabled = getEnvBool("AUTH_ENABLED", false)
		instance.Auth.JWTSecret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
		instance.Auth.JWTExpiry = getEnvDuration("JWT_EXPIRY", 24*time.Hour)
		instance.Auth.OperatorKey = getEnvString("OPERATOR_KEY", "")

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Chat config
		instance.Chat.GenerateTimeout = getEnvDuration("GENERATE_TIMEOUT", 10*time.Second)
		instance.Chat.SummarizeTimeout = getEnvDuration("SUMMARIZE_TIMEOUT", 10*time.Second)
		instance.Chat.DefaultModel = getEnvString("DEFAULT_MODEL", "gemini")

		// Model backends
		instance.Models.GoogleAPIKey = getEnvString("GOOGLE_API_KEY", "")
		instance.Models.GeminiModel = getEnvString("GEMINI_MODEL", "gemini-2.0-flash-exp")
		instance.Models.LocalModelURL = getEnvString("LOCAL_MODEL_URL", "")

		// Cache settings
		instance.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
		instance.Cache.RedisAddr = getEnvString("REDIS_ADDR", "")

		// Validation settings
		instance.Validation.Enabled = getEnvBool("OPENAPI_VALIDATION", false)
		instance.Validation.SchemaPath = getEnvString("OPENAPI_SCHEMA", "api/openapi.yaml")
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
