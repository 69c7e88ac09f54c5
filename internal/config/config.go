package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap" // Use logger for loading errors
)

// Config holds all configuration for the application
type Config struct {
	AppEnv           string
	Port             string
	CORSAllowOrigins string
	CORSAllowMethods string
	CORSAllowHeaders string

	// Shared secret expected in the X-API-Key request header.
	// Loading fails when it is unset: there is deliberately no fallback key.
	APIKey string

	// --- MongoDB settings ---
	MongoURI               string
	MongoDBName            string
	MongoConnectTimeout    time.Duration // server selection / initial connect
	MongoOpTimeout         time.Duration // per-operation (insert/find/ping)
	MongoReconnectInterval time.Duration // storage monitor tick

	// --- File/console logging settings ---
	LogFilePath       string
	LogLevel          string
	LogRotateInterval int // Hour
	LogMaxSize        int // MB
	LogMaxBackups     int
	LogMaxAge         int // Days
	LogCompress       bool

	// --- Dedicated Mongo application-log settings ---
	MongoLogEnabled bool
	MongoLogLevel   string
}

// LoadConfig reads configuration from environment variables or .env file
func LoadConfig(logger *zap.Logger) (*Config, error) { // logger can be nil here
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "local" // Default to local if not set
	}

	envFileName := fmt.Sprintf(".env.%s", appEnv)
	if _, err := os.Stat(envFileName); err == nil {
		if err := godotenv.Load(envFileName); err != nil {
			if logger != nil {
				logger.Warn("Error loading .env file, continuing with environment variables", zap.String("file", envFileName), zap.Error(err))
			}
		} else {
			if logger != nil {
				logger.Info("Loaded configuration", zap.String("file", envFileName))
			}
		}
	} else if appEnv == "local" {
		// Try loading .env.local by default if .env.local specifically exists
		if _, err := os.Stat(".env.local"); err == nil {
			if err := godotenv.Load(".env.local"); err != nil {
				if logger != nil {
					logger.Warn("Error loading .env.local file", zap.Error(err))
				}
			} else {
				if logger != nil {
					logger.Info("Loaded configuration from .env.local")
				}
			}
		} else {
			if logger != nil {
				logger.Warn(".env.local not found, relying on environment variables or defaults")
			}
		}
	} else {
		if logger != nil {
			logger.Warn("No specific .env file found for environment, relying on environment variables or defaults", zap.String("environment", appEnv))
		}
	}

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "local"),
		Port:   getEnv("PORT", "5000"),
		APIKey: getEnv("API_KEY", ""),

		// --- Load Mongo Settings ---
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "deltabots_logs"),

		LogFilePath:       getEnv("LOG_FILE_PATH", "./logs/app.log"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogRotateInterval: getEnvAsInt("LOG_ROTATE_INTERVAL", 1),
		LogMaxSize:        getEnvAsInt("LOG_MAX_SIZE", 100),
		LogMaxBackups:     getEnvAsInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:         getEnvAsInt("LOG_MAX_AGE", 30),
		LogCompress:       getEnvAsBool("LOG_COMPRESS", false),

		// --- Load CORS Settings ---
		// Default AllowOrigins to "*" for local, empty for others (forcing explicit setting)
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", func() string {
			if getEnv("APP_ENV", "local") == "local" || getEnv("APP_ENV", "local") == "development" {
				return "*" // Be permissive in local/dev
			}
			return "" // Force setting in prod/other envs
		}()),
		CORSAllowMethods: getEnv("CORS_ALLOW_METHODS", "GET,POST,HEAD"),
		CORSAllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Type,Accept,X-API-Key"),

		// --- Load Mongo application-log settings ---
		MongoLogEnabled: getEnvAsBool("MONGO_LOG_ENABLED", false),
		MongoLogLevel:   strings.ToLower(getEnv("MONGO_LOG_LEVEL", "warn")),
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "dpanic": true, "panic": true, "fatal": true}
	if !validLevels[cfg.LogLevel] {
		if logger != nil {
			logger.Warn("Invalid LOG_LEVEL specified, defaulting to 'info'", zap.String("invalidLevel", cfg.LogLevel))
		}
		cfg.LogLevel = "info" // Reset to default if invalid
	}
	if !validLevels[cfg.MongoLogLevel] {
		if logger != nil {
			logger.Warn("Invalid MONGO_LOG_LEVEL specified, defaulting to 'warn'", zap.String("invalidLevel", cfg.MongoLogLevel))
		}
		cfg.MongoLogLevel = "warn"
	}

	cfg.MongoConnectTimeout = time.Duration(getEnvAsInt("MONGO_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second
	cfg.MongoOpTimeout = time.Duration(getEnvAsInt("MONGO_OP_TIMEOUT_SECONDS", 10)) * time.Second
	cfg.MongoReconnectInterval = time.Duration(getEnvAsInt("MONGO_RECONNECT_INTERVAL_SECONDS", 30)) * time.Second

	// Check required fields and add warnings/errors
	if cfg.APIKey == "" {
		if logger != nil {
			logger.Error("API_KEY environment variable is not set")
		}
		return nil, fmt.Errorf("API_KEY is required")
	}
	if cfg.MongoURI == "" {
		if logger != nil {
			logger.Error("MONGO_URI environment variable is empty")
		}
		return nil, fmt.Errorf("MONGO_URI is required")
	}

	// Add warning for default/empty CORS origins in production
	if cfg.AppEnv != "local" && cfg.AppEnv != "development" && (cfg.CORSAllowOrigins == "*" || cfg.CORSAllowOrigins == "") {
		if logger != nil {
			logger.Warn("CORS_ALLOW_ORIGINS is set to '*' or is empty in a non-local/dev environment. This is insecure. Set specific origins for production.")
		}
		return nil, fmt.Errorf("CORS_ALLOW_ORIGINS must be set explicitly in production environments")
	}

	return cfg, nil
}

// Helper function to get env var or default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get env var as int or default
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper function to get env var as bool or default
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
