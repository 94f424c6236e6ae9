package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Supported card store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendRedis    = "redis"
	BackendS3       = "s3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	S3       S3Config
	Logger   LoggerConfig
	CORS     CORSConfig
	Tracing  TracingConfig
	Claim    ClaimConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// StoreConfig selects and tunes the stamp card store.
type StoreConfig struct {
	Backend         string
	Timeout         time.Duration
	AtomicIncrement bool
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	ApplicationName string
	ConnectTimeout  time.Duration
}

// MongoConfig holds MongoDB configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// S3Config holds AWS S3 configuration for card documents.
type S3Config struct {
	Bucket       string
	Region       string
	Prefix       string // Key prefix within bucket (e.g., "cards/")
	Endpoint     string // Optional, for S3-compatible stores
	UsePathStyle bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// CORSConfig holds the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
}

// ClaimConfig holds claim code and customer id rules.
type ClaimConfig struct {
	CodeLength        int
	CustomerIDPattern string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
			Timeout:         getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
			AtomicIncrement: getEnvAsBool("STORE_ATOMIC_INCREMENT", false),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "loyalty"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			ApplicationName: getEnv("DB_APPLICATION_NAME", "seven-oz-loyalty"),
			ConnectTimeout:  getEnvAsDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGO_DB", "loyalty"),
			Collection: getEnv("MONGO_COLLECTION", "cards"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "stampcard:"),
		},
		S3: S3Config{
			Bucket:       getEnv("S3_BUCKET", ""),
			Region:       getEnv("S3_REGION", "us-east-1"),
			Prefix:       getEnv("S3_PREFIX", "cards/"),
			Endpoint:     getEnv("S3_ENDPOINT", ""),
			UsePathStyle: getEnvAsBool("S3_USE_PATH_STYLE", false),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			Endpoint:    getEnv("TRACING_ENDPOINT", "http://localhost:14268/api/traces"),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "seven-oz-loyalty"),
			Environment: getEnv("TRACING_ENVIRONMENT", "development"),
		},
		Claim: ClaimConfig{
			CodeLength:        getEnvAsInt("CLAIM_CODE_LENGTH", 12),
			CustomerIDPattern: getEnv("CUSTOMER_ID_PATTERN", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store timeout must be positive")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo URI is required")
		}
		if c.Mongo.Database == "" || c.Mongo.Collection == "" {
			return fmt.Errorf("mongo database and collection are required")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when the s3 backend is selected")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when the s3 backend is selected")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be memory, postgres, mongo, redis, or s3)", c.Store.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin is required")
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	if c.Claim.CodeLength < 8 || c.Claim.CodeLength > 64 {
		return fmt.Errorf("invalid claim code length: %d (must be between 8 and 64)", c.Claim.CodeLength)
	}

	if c.Claim.CustomerIDPattern != "" {
		if _, err := regexp.Compile(c.Claim.CustomerIDPattern); err != nil {
			return fmt.Errorf("invalid customer id pattern: %w", err)
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.ConnectTimeout < 0 {
		return fmt.Errorf("database connect timeout cannot be negative")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("5s", "250ms").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
