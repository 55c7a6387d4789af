package app

import (
	"errors"
	"testing"
	"time"

	"github.com/yungbote/travel-companion-backend/internal/platform/gcp"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DOCUMENT_GCS_BUCKET_NAME", "docs")
	cfg := LoadConfig(logger.Nop())

	if cfg.DBDriver != DBDriverPostgres {
		t.Fatalf("db driver: want=%s got=%s", DBDriverPostgres, cfg.DBDriver)
	}
	if cfg.UserLockTimeout != 10*time.Second {
		t.Fatalf("lock timeout: want=10s got=%v", cfg.UserLockTimeout)
	}
	if cfg.ChatHistoryWindow != 20 || cfg.ChatRetention != 30*24*time.Hour {
		t.Fatalf("chat: want=20/720h got=%d/%v", cfg.ChatHistoryWindow, cfg.ChatRetention)
	}
	if cfg.DocumentMaxBytes != 25<<20 {
		t.Fatalf("document max: want=%d got=%d", 25<<20, cfg.DocumentMaxBytes)
	}
	if cfg.StorageErr != nil || cfg.Storage.ExportBucket != "docs" {
		t.Fatalf("storage: err=%v export=%q", cfg.StorageErr, cfg.Storage.ExportBucket)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/tc.db")
	t.Setenv("USER_LOCK_TIMEOUT", "3s")
	t.Setenv("CHAT_RETENTION_DAYS", "7")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("OBJECT_STORAGE_MODE", "s3")

	cfg := LoadConfig(logger.Nop())
	if cfg.DBDriver != DBDriverSQLite || cfg.SQLitePath != "/tmp/tc.db" {
		t.Fatalf("sqlite: got=%s %s", cfg.DBDriver, cfg.SQLitePath)
	}
	if cfg.UserLockTimeout != 3*time.Second || cfg.ChatRetention != 7*24*time.Hour {
		t.Fatalf("durations: got=%v %v", cfg.UserLockTimeout, cfg.ChatRetention)
	}
	if cfg.RateLimitRPS != 0.5 {
		t.Fatalf("rps: want=0.5 got=%v", cfg.RateLimitRPS)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("cors: got=%v", cfg.CORSOrigins)
	}
	var cfgErr *gcp.ObjectStorageConfigError
	if !errors.As(cfg.StorageErr, &cfgErr) || cfgErr.Code != gcp.ObjectStorageConfigErrorInvalidMode {
		t.Fatalf("storage err: got=%v", cfg.StorageErr)
	}
}
