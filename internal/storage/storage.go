package storage

import (
	"context"
	"io"
	"time"
)

// Package storage persists the binary PDF payloads behind paper rows.
// Stored paths are always relative to the backend's root (directory or bucket).

// StoredRef locates a payload written by Put.
type StoredRef struct {
	Path string
	Size int64
}

// ObjectInfo contains basic information about a stored payload.
type ObjectInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is the document store contract shared by every backend.
// Missing payloads are reported as apperr.ErrNotFound.
type Store interface {
	// Put validates and writes one PDF under a newly generated name.
	// size is the declared length in bytes, or -1 when unknown.
	Put(ctx context.Context, r io.Reader, originalName, contentType string, size int64) (StoredRef, error)
	// Get opens a stored payload for streaming. The caller must close the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes a stored payload.
	Delete(ctx context.Context, path string) error
}
