package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"paperapi/internal/apperr"
	"paperapi/internal/config"
)

// minioStore implements Store using an S3-compatible backend (MinIO, AWS S3, etc.).
// Object keys play the role of relative paths. It is safe for concurrent use.
type minioStore struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

// NewMinIO creates a new S3-compatible document store backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (Store, error) {
	if err := validateMinIO(cfg); err != nil {
		return nil, err
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &minioStore{client: cli, bucket: cfg.Bucket, now: time.Now}, nil
}

func validateMinIO(cfg config.MinIOConfig) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("minio bucket is required")
	}
	return nil
}

// Put streams the upload to the bucket without touching local disk.
func (m *minioStore) Put(ctx context.Context, r io.Reader, originalName, contentType string, size int64) (StoredRef, error) {
	body, err := prepare(r, contentType, size)
	if err != nil {
		return StoredRef{}, err
	}
	key, err := GenerateName(originalName, m.now())
	if err != nil {
		return StoredRef{}, err
	}
	if size < 0 {
		size = -1
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  PDFContentType,
		UserMetadata: map[string]string{"original-filename": originalName},
	})
	if err != nil {
		return StoredRef{}, fmt.Errorf("%w: put object: %v", apperr.ErrStorage, err)
	}
	if info.Size > MaxFileSize {
		_ = m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
		return StoredRef{}, apperr.ErrPayloadTooLarge
	}
	return StoredRef{Path: key, Size: info.Size}, nil
}

// Get downloads an object as a ReadCloser along with basic info.
func (m *minioStore) Get(ctx context.Context, path string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, mapMinIOErr("get object", err)
	}
	// Stat forces the request so a missing key surfaces here, not mid-stream.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, mapMinIOErr("stat object", err)
	}
	return obj, ObjectInfo{
		Path:         path,
		Size:         st.Size,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
	}, nil
}

// Delete removes an object by key. RemoveObject is silent about missing keys,
// so existence is checked first to report ErrNotFound.
func (m *minioStore) Delete(ctx context.Context, path string) error {
	if _, err := m.client.StatObject(ctx, m.bucket, path, minio.StatObjectOptions{}); err != nil {
		return mapMinIOErr("stat object", err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return mapMinIOErr("remove object", err)
	}
	return nil
}

func mapMinIOErr(op string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return apperr.ErrNotFound
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrStorage, op, err)
}
