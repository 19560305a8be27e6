package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Redis (session + OTP state)
	RedisAddr     string
	RedisPassword string

	// Mobile API token
	JWTSecret    string
	JWTExpiresIn string

	// Session
	SessionSecret            string
	SessionInactivityMinutes int

	// Password lifecycle
	PasswordCipherKey         string
	PasswordResetIntervalDays int

	// Bulk upload
	UploadRoot string

	// Allowed Origins
	AllowedOrigins string
}

var AppConfig *Config

// LoadConfig loads environment variables into Config struct
func LoadConfig() {
	// Load .env file if it exists (optional in production)
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Port:                      getEnv("PORT", "5500"),
		Environment:               getEnv("ENVIRONMENT", "development"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		RedisAddr:                 getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:             getEnv("REDIS_PASSWORD", ""),
		JWTSecret:                 getEnv("JWT_SECRET", ""),
		JWTExpiresIn:              getEnv("JWT_EXPIRES_IN", "7d"),
		SessionSecret:             getEnv("SESSION_SECRET", ""),
		SessionInactivityMinutes:  getEnvInt("SESSION_INACTIVITY_MINUTES", 60),
		PasswordCipherKey:         getEnv("PASSWORD_CIPHER_KEY", ""),
		PasswordResetIntervalDays: getEnvInt("PASSWORD_RESET_INTERVAL_DAYS", 90),
		UploadRoot:                getEnv("UPLOAD_ROOT", "static"),
		AllowedOrigins:            getEnv("ALLOWED_ORIGINS", ""),
	}

	// Validate required config
	if AppConfig.DatabaseURL == "" {
		logrus.Fatal("DATABASE_URL is required")
	}
	if AppConfig.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is required")
	}
	if AppConfig.SessionSecret == "" {
		logrus.Fatal("SESSION_SECRET is required")
	}

	logrus.Info("Configuration loaded successfully")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		logrus.WithField("key", key).Warn("Invalid integer in environment, using default")
	}
	return defaultValue
}

// IsProduction returns true if running in production mode
func IsProduction() bool {
	return AppConfig.Environment == "production"
}

// IsDevelopment returns true if running in development mode
func IsDevelopment() bool {
	return AppConfig.Environment == "development" || AppConfig.Environment == ""
}
