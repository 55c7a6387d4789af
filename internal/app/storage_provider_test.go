package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/gcp"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

func requireBootstrapCode(t *testing.T, err error, want StorageProviderBootstrapErrorCode) {
	t.Helper()
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
	}
	if got.Code != want {
		t.Fatalf("code: want=%q got=%q", want, got.Code)
	}
}

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		src  error
		want StorageProviderBootstrapErrorCode
	}{
		{&gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode, Value: "bad-mode"}, StorageProviderBootstrapErrorInvalidMode},
		{&gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost}, StorageProviderBootstrapErrorMissingEmulatorHost},
		{&gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost, Value: "fake-gcs:4443"}, StorageProviderBootstrapErrorInvalidEmulatorHost},
		{&gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingBucket, Value: "DOCUMENT_GCS_BUCKET_NAME"}, StorageProviderBootstrapErrorMissingBucket},
		{&gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidPublicBase, Value: "cdn.local"}, StorageProviderBootstrapErrorInvalidPublicBase},
		{errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		err := classifyStorageProviderBootstrapError(gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS}, tc.src)
		requireBootstrapCode(t, err, tc.want)
		if !errors.Is(err, tc.src) {
			t.Fatalf("cause not preserved for %v", tc.src)
		}
	}
}

func TestResolveBucketServiceRejectsConfigError(t *testing.T) {
	_, err := resolveBucketService(logger.Nop(), Config{
		StorageErr: &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode, Value: "s3"},
	})
	requireBootstrapCode(t, err, StorageProviderBootstrapErrorInvalidMode)
}

func TestResolveBucketServiceGCSMode(t *testing.T) {
	orig := newBucketServiceWithConfig
	t.Cleanup(func() { newBucketServiceWithConfig = orig })

	var captured gcp.ObjectStorageConfig
	expected := &testBucketService{}
	newBucketServiceWithConfig = func(_ *logger.Logger, cfg gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		captured = cfg
		return expected, nil
	}

	got, err := resolveBucketService(logger.Nop(), Config{Storage: gcp.ObjectStorageConfig{
		Mode:           gcp.ObjectStorageModeGCS,
		DocumentBucket: "docs",
		ExportBucket:   "exports",
	}})
	if err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if got != expected {
		t.Fatalf("bucket: expected stub bucket instance")
	}
	if captured.Mode != gcp.ObjectStorageModeGCS || captured.ExportBucket != "exports" {
		t.Fatalf("config: got=%+v", captured)
	}
}

func TestResolveBucketServiceInvalidEmulatorHost(t *testing.T) {
	orig := newBucketServiceWithConfig
	t.Cleanup(func() { newBucketServiceWithConfig = orig })
	newBucketServiceWithConfig = gcp.NewBucketServiceWithConfig

	_, err := resolveBucketService(logger.Nop(), Config{Storage: gcp.ObjectStorageConfig{
		Mode:           gcp.ObjectStorageModeGCSEmulator,
		EmulatorHost:   "not-a-url",
		DocumentBucket: "docs",
	}})
	requireBootstrapCode(t, err, StorageProviderBootstrapErrorInvalidEmulatorHost)
}

func TestResolveBucketServiceConnectFailure(t *testing.T) {
	orig := newBucketServiceWithConfig
	t.Cleanup(func() { newBucketServiceWithConfig = orig })
	newBucketServiceWithConfig = func(_ *logger.Logger, cfg gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		return nil, errors.New("credentials: could not find default credentials")
	}

	_, err := resolveBucketService(logger.Nop(), Config{Storage: gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS, DocumentBucket: "docs"}})
	requireBootstrapCode(t, err, StorageProviderBootstrapErrorConnectFailed)
}

type testBucketService struct{}

func (t *testBucketService) UploadFile(dbc dbctx.Context, category gcp.BucketCategory, key string, file io.Reader, contentType string) error {
	return nil
}

func (t *testBucketService) DeleteFile(dbc dbctx.Context, category gcp.BucketCategory, key string) error {
	return nil
}

func (t *testBucketService) DownloadFile(ctx context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (t *testBucketService) GetObjectAttrs(ctx context.Context, category gcp.BucketCategory, key string) (*gcp.ObjectAttrs, error) {
	return &gcp.ObjectAttrs{}, nil
}

func (t *testBucketService) ListKeys(ctx context.Context, category gcp.BucketCategory, prefix string) ([]string, error) {
	return nil, nil
}

func (t *testBucketService) SignedURL(ctx context.Context, category gcp.BucketCategory, key string, ttl time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}
