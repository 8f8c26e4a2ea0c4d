package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"STORE_BACKEND", "SQLITE_PATH", "AWS_REGION", "REGION", "NOTIFY_CHANNEL",
		"NOTIFY_INTERVAL", "SELECTION_CACHE_TTL", "SEARCH_DEBOUNCE", "DEFAULT_PAGE_SIZE", "LOG_LEVEL",
		"AWS_LAMBDA_FUNCTION_NAME", "ENVIRONMENT", "RECONCILE_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "./data/ledger.db", cfg.SQLitePath)
	assert.Equal(t, "ap-northeast-1", cfg.AWSRegion)
	assert.Equal(t, ChannelLog, cfg.NotifyChannel)
	assert.Equal(t, 2*time.Second, cfg.NotifyInterval)
	assert.Equal(t, 30*time.Second, cfg.SelectionCacheTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.IsProd())
}

func TestLoadFromEnv_DynamoDB(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_BACKEND", "dynamodb")
	t.Setenv("DYNAMODB_TABLE_NAME", "")

	_, err := LoadFromEnv()
	assert.Error(t, err)

	t.Setenv("DYNAMODB_TABLE_NAME", "ledger")
	t.Setenv("REGION", "bd")
	t.Setenv("AWS_REGION", "")
	t.Setenv("NOTIFY_CHANNEL", "sns")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "ledger", cfg.DynamoDBTableName)
	assert.Equal(t, "ap-south-1", cfg.AWSRegion)
	assert.Equal(t, ChannelSNS, cfg.NotifyChannel)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	chdir(t, t.TempDir())
	tests := map[string]string{
		"STORE_BACKEND":     "postgres",
		"NOTIFY_CHANNEL":    "pigeon",
		"NOTIFY_INTERVAL":   "soon",
		"DEFAULT_PAGE_SIZE": "0",
		"LOG_LEVEL":         "loud",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv("STORE_BACKEND", "sqlite")
			t.Setenv(key, value)
			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}

// chdir changes the working directory for the test and restores it on
// cleanup (testing.T.Chdir is unavailable before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
