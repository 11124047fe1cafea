package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rongwang/litigation-tracker/internal/utils"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Store    StoreConfig
	Blob     BlobConfig
	Log      utils.LogConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port                int
	LoginRatePerMinute  int
	MaxUploadBytes      int64
	ShutdownGracePeriod time.Duration
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	DBName     string
	SSLMode    string
	TestDBName string // Separate database for integration tests
	MaxConns   int
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminUsername string
	AdminPassword string
}

// StoreConfig bounds every store access
type StoreConfig struct {
	Timeout  time.Duration
	Location *time.Location
}

// BlobConfig locates uploaded document bytes
type BlobConfig struct {
	Dir string
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadEnvFile loads a .env file if present so os.Getenv picks values from it.
// A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() *Config {
	dev := getEnv("LOG_DEV", "") == "1"
	level := getEnv("LOG_LEVEL", "")
	if level == "" {
		level = "info"
		if dev {
			level = "debug"
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:                getEnvAsInt("SERVER_PORT", 8080),
			LoginRatePerMinute:  getEnvAsInt("LOGIN_RATE_PER_MINUTE", 20),
			MaxUploadBytes:      int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) << 20,
			ShutdownGracePeriod: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			Username:   getEnv("DB_USERNAME", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			DBName:     getEnv("DB_NAME", "litigation"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			TestDBName: getEnv("TEST_DB_NAME", "litigation_test"),
			MaxConns:   getEnvAsInt("DB_MAX_CONNS", 25),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-here"),
			TokenTTL:      time.Duration(getEnvAsInt("TOKEN_TTL_MINUTES", 480)) * time.Minute,
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		Store: StoreConfig{
			Timeout:  time.Duration(getEnvAsInt("STORE_TIMEOUT_SECONDS", 5)) * time.Second,
			Location: getEnvAsLocation("TIMEZONE", time.UTC),
		},
		Blob: BlobConfig{
			Dir: getEnv("BLOB_DIR", "uploads"),
		},
		Log: utils.LogConfig{
			Level: level,
			Dev:   dev,
		},
	}
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsLocation(key string, defaultValue *time.Location) *time.Location {
	name := getEnv(key, "")
	if name == "" {
		return defaultValue
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return defaultValue
	}
	return loc
}
