package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"paperapi/internal/apperr"
)

// createAttempts bounds retries when a generated name already exists.
const createAttempts = 3

// FileSystemStore stores uploaded papers as files under a single root directory.
// It is safe for concurrent use; files are created exclusively and never overwritten.
type FileSystemStore struct {
	root string
	now  func() time.Time
}

var _ Store = (*FileSystemStore)(nil)

// NewFileSystemStore creates a new filesystem storage backend rooted at root.
func NewFileSystemStore(root string) *FileSystemStore {
	return &FileSystemStore{root: root, now: time.Now}
}

// Root returns the configured storage directory.
func (s *FileSystemStore) Root() string {
	return s.root
}

// EnsureDir creates the storage directory if it doesn't exist.
func (s *FileSystemStore) EnsureDir() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", s.root, err)
	}
	return nil
}

// Put writes r to a new file. Rejected or failed uploads leave nothing on disk.
func (s *FileSystemStore) Put(ctx context.Context, r io.Reader, originalName, contentType string, size int64) (StoredRef, error) {
	body, err := prepare(r, contentType, size)
	if err != nil {
		return StoredRef{}, err
	}
	if err := ctx.Err(); err != nil {
		return StoredRef{}, err
	}

	f, name, err := s.create(originalName)
	if err != nil {
		return StoredRef{}, err
	}
	full := f.Name()

	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return StoredRef{}, fmt.Errorf("%w: write %s: %v", apperr.ErrStorage, name, err)
	}
	if n > MaxFileSize {
		_ = os.Remove(full)
		return StoredRef{}, apperr.ErrPayloadTooLarge
	}

	return StoredRef{Path: name, Size: n}, nil
}

func (s *FileSystemStore) create(originalName string) (*os.File, string, error) {
	for i := 0; i < createAttempts; i++ {
		name, err := GenerateName(originalName, s.now())
		if err != nil {
			return nil, "", err
		}
		f, err := os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("%w: create file: %v", apperr.ErrStorage, err)
		}
		return f, name, nil
	}
	return nil, "", fmt.Errorf("%w: could not allocate a unique file name", apperr.ErrStorage)
}

// Get opens a stored file for reading.
func (s *FileSystemStore) Get(_ context.Context, path string) (io.ReadCloser, ObjectInfo, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, apperr.ErrNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("%w: open %s: %v", apperr.ErrStorage, path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("%w: stat %s: %v", apperr.ErrStorage, path, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, apperr.ErrNotFound
	}
	return f, ObjectInfo{
		Path:         path,
		Size:         st.Size(),
		ContentType:  PDFContentType,
		LastModified: st.ModTime(),
	}, nil
}

// Delete removes a stored file. A second delete of the same path reports ErrNotFound.
func (s *FileSystemStore) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("%w: delete %s: %v", apperr.ErrStorage, path, err)
	}
	return nil
}

// resolve maps a stored relative path onto the root. Paths escaping the root
// cannot name a stored file.
func (s *FileSystemStore) resolve(path string) (string, error) {
	if path == "" || !filepath.IsLocal(path) {
		return "", apperr.ErrNotFound
	}
	return filepath.Join(s.root, path), nil
}
