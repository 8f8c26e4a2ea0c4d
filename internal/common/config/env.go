package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// Notification channels
const (
	ChannelSNS = "sns"
	ChannelLog = "log"
)

// Config represents the application configuration
type Config struct {
	// Storage
	StoreBackend      string
	SQLitePath        string
	DynamoDBTableName string

	// AWS-specific configuration
	AWSRegion string

	// Environment and region info
	Environment string
	Region      string

	// Notification
	NotifyChannel     string
	NotifyInterval    time.Duration
	SelectionCacheTTL time.Duration

	// Listing
	SearchDebounce  time.Duration
	DefaultPageSize int

	// Jobs
	ReconcileSchedule string

	LogLevel slog.Level

	// Lambda detection flag (cached)
	isLambda bool
}

// LoadFromEnv loads the configuration from environment variables.
// A .env file in the working directory is read first when present.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	cfg.isLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite))
	switch cfg.StoreBackend {
	case BackendSQLite:
		cfg.SQLitePath = os.Getenv("SQLITE_PATH")
		if cfg.SQLitePath == "" {
			if cfg.isLambda {
				cfg.SQLitePath = "/mnt/efs/sqlite/ledger.db" // EFS mount point
			} else {
				cfg.SQLitePath = "./data/ledger.db"
			}
		}
	case BackendDynamoDB:
		cfg.DynamoDBTableName = os.Getenv("DYNAMODB_TABLE_NAME")
		if cfg.DynamoDBTableName == "" {
			return nil, errors.New("DYNAMODB_TABLE_NAME environment variable is required")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	// Environment and region info
	cfg.Environment = getEnv("ENVIRONMENT", "dev")
	cfg.Region = getEnv("REGION", "jp")

	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		// Default AWS regions based on our region code
		switch cfg.Region {
		case "us":
			cfg.AWSRegion = "us-west-2"
		case "eu":
			cfg.AWSRegion = "eu-west-1"
		case "bd", "in":
			cfg.AWSRegion = "ap-south-1"
		default:
			cfg.AWSRegion = "ap-northeast-1"
		}
	}

	cfg.NotifyChannel = strings.ToLower(getEnv("NOTIFY_CHANNEL", ChannelLog))
	if cfg.NotifyChannel != ChannelSNS && cfg.NotifyChannel != ChannelLog {
		return nil, fmt.Errorf("unknown NOTIFY_CHANNEL %q", cfg.NotifyChannel)
	}

	var err error
	if cfg.NotifyInterval, err = getDuration("NOTIFY_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.SelectionCacheTTL, err = getDuration("SELECTION_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SearchDebounce, err = getDuration("SEARCH_DEBOUNCE", 300*time.Millisecond); err != nil {
		return nil, err
	}

	cfg.DefaultPageSize = 20
	if v := os.Getenv("DEFAULT_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("DEFAULT_PAGE_SIZE must be a positive integer, got %q", v)
		}
		cfg.DefaultPageSize = n
	}

	cfg.ReconcileSchedule = getEnv("RECONCILE_SCHEDULE", "0 3 * * *")

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// IsLambda returns true if the application is running in AWS Lambda
func (c *Config) IsLambda() bool {
	return c.isLambda
}
