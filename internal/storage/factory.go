package storage

import (
	"context"
	"fmt"

	"paperapi/internal/config"
)

const (
	DriverFilesystem = "filesystem"
	DriverMinIO      = "minio"
)

// New builds the document store selected by cfg.Driver. The filesystem root is
// created if absent.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		fs := NewFileSystemStore(cfg.Path)
		if err := fs.EnsureDir(); err != nil {
			return nil, err
		}
		return fs, nil
	case DriverMinIO:
		return NewMinIO(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
