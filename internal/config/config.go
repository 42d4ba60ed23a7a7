package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
)

// Storage backends
const (
	BackendFirestore = "firestore"
	BackendDynamoDB  = "dynamodb"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

type Config struct {
	Environment   string
	TelegramToken string
	HTTP          HTTPConfig
	Auth          AuthConfig
	Storage       StorageConfig
	Firestore     FirestoreConfig
	DynamoDB      DynamoDBConfig
	DB            DBConfig
	Redis         RedisConfig
	Reminder      ReminderConfig
	Logger        LoggerConfig
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

type StorageConfig struct {
	Backend string
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

type DynamoDBConfig struct {
	Region    string
	Table     string
	IndexName string
	Endpoint  string // local DynamoDB, empty for AWS
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DSN returns the postgres connection string
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type ReminderConfig struct {
	MinInterval time.Duration
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnvOrDefault("ENVIRONMENT", "development"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		HTTP: HTTPConfig{
			Address:      getEnvOrDefault("HTTP_ADDRESS", ":8080"),
			ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			JWTIssuer: getEnvOrDefault("JWT_ISSUER", "eyecare-tracker"),
			TokenTTL:  getEnvDuration("TOKEN_TTL", 30*24*time.Hour),
		},
		Storage: StorageConfig{
			Backend: getEnvOrDefault("STORAGE_BACKEND", BackendFirestore),
		},
		Firestore: FirestoreConfig{
			ProjectID:       os.Getenv("FIRESTORE_PROJECT_ID"),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		DynamoDB: DynamoDBConfig{
			Region:    getEnvOrDefault("AWS_REGION", "eu-central-1"),
			Table:     getEnvOrDefault("DYNAMODB_TABLE", "eyecare"),
			IndexName: getEnvOrDefault("DYNAMODB_INDEX", "GSI1"),
			Endpoint:  os.Getenv("DYNAMODB_ENDPOINT"),
		},
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "eyecare_tracker"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Reminder: ReminderConfig{
			MinInterval: getEnvDuration("REMINDER_MIN_INTERVAL", time.Minute),
		},
		Logger: LoggerConfig{
			Level:      logger.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore backend")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" || c.DynamoDB.IndexName == "" {
			return fmt.Errorf("DYNAMODB_TABLE and DYNAMODB_INDEX are required for the dynamodb backend")
		}
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.Storage.Backend == BackendMemory {
			return fmt.Errorf("the memory backend cannot be used in production")
		}
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Reminder.MinInterval <= 0 {
		return fmt.Errorf("REMINDER_MIN_INTERVAL must be positive")
	}
	return nil
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SigningSecret returns the JWT secret, with a fixed fallback outside production.
func (c *Config) SigningSecret() string {
	if c.Auth.JWTSecret == "" && !c.IsProduction() {
		return "development-secret-change-in-production"
	}
	return c.Auth.JWTSecret
}
