package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/travel-companion-backend/internal/platform/gcp"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/utils"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

type Config struct {
	ServiceName string
	Environment string
	Port        string

	DBDriver   string
	SQLitePath string

	JWTSecretKey   string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	UserLockTimeout   time.Duration
	ProviderTimeout   time.Duration
	ChatHistoryWindow int
	ChatRetention     time.Duration
	DocumentMaxBytes  int64

	SweepSchedule    string
	SweepConcurrency int
	SweepMaxUsers    int

	Storage    gcp.ObjectStorageConfig
	StorageErr error
}

// LoadDotEnv reads .env when present. Variables already set win.
func LoadDotEnv(log *logger.Logger) {
	if err := godotenv.Load(); err == nil && log != nil {
		log.Info("Loaded .env")
	}
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName: utils.GetEnv("SERVICE_NAME", "travel-companion", log),
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Port:        utils.GetEnv("PORT", "8080", log),

		DBDriver:   strings.ToLower(utils.GetEnv("DB_DRIVER", DBDriverPostgres, log)),
		SQLitePath: utils.GetEnv("SQLITE_PATH", "travel_companion.db", log),

		JWTSecretKey:   utils.GetEnv("JWT_SECRET_KEY", "", nil),
		CORSOrigins:    splitList(utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)),
		RateLimitRPS:   utils.GetEnvAsFloat("RATE_LIMIT_RPS", 5, log),
		RateLimitBurst: utils.GetEnvAsInt("RATE_LIMIT_BURST", 10, log),

		UserLockTimeout:   utils.GetEnvAsDuration("USER_LOCK_TIMEOUT", 10*time.Second, log),
		ProviderTimeout:   utils.GetEnvAsDuration("PROVIDER_TIMEOUT", 8*time.Second, log),
		ChatHistoryWindow: utils.GetEnvAsInt("CHAT_HISTORY_WINDOW", 20, log),
		ChatRetention:     time.Duration(utils.GetEnvAsInt("CHAT_RETENTION_DAYS", 30, log)) * 24 * time.Hour,
		DocumentMaxBytes:  int64(utils.GetEnvAsInt("DOCUMENT_MAX_BYTES", 25<<20, log)),

		SweepSchedule:    utils.GetEnv("SWEEP_SCHEDULE", "0 */6 * * *", log),
		SweepConcurrency: utils.GetEnvAsInt("SWEEP_CONCURRENCY", 4, log),
		SweepMaxUsers:    utils.GetEnvAsInt("SWEEP_MAX_USERS", 1000, log),
	}
	cfg.Storage, cfg.StorageErr = gcp.ResolveObjectStorageConfigFromEnv()
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
