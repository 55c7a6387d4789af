package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/travel-companion-backend/internal/platform/gcp"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

var newBucketServiceWithConfig = gcp.NewBucketServiceWithConfig

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorInvalidPublicBase   StorageProviderBootstrapErrorCode = "invalid_public_base_url"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBucketService opens the document/export store chosen by the environment.
func resolveBucketService(log *logger.Logger, cfg Config) (gcp.BucketService, error) {
	storageCfg := cfg.Storage
	if cfg.StorageErr != nil {
		err := classifyStorageProviderBootstrapError(storageCfg, cfg.StorageErr)
		log.Error("Object storage config rejected",
			"mode", storageCfg.Mode,
			"error_code", storageProviderBootstrapErrorCode(err),
			"error", err,
		)
		return nil, err
	}

	log.Info("Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
		"document_bucket", storageCfg.DocumentBucket,
		"export_bucket", storageCfg.ExportBucket,
	)
	bucket, err := newBucketServiceWithConfig(log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error("Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return bucket, nil
}

var configErrorCodes = map[gcp.ObjectStorageConfigErrorCode]StorageProviderBootstrapErrorCode{
	gcp.ObjectStorageConfigErrorInvalidMode:         StorageProviderBootstrapErrorInvalidMode,
	gcp.ObjectStorageConfigErrorMissingEmulatorHost: StorageProviderBootstrapErrorMissingEmulatorHost,
	gcp.ObjectStorageConfigErrorInvalidEmulatorHost: StorageProviderBootstrapErrorInvalidEmulatorHost,
	gcp.ObjectStorageConfigErrorMissingBucket:       StorageProviderBootstrapErrorMissingBucket,
	gcp.ObjectStorageConfigErrorInvalidPublicBase:   StorageProviderBootstrapErrorInvalidPublicBase,
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		if mapped, ok := configErrorCodes[cfgErr.Code]; ok {
			code = mapped
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
