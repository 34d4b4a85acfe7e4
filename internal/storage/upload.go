package storage

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"paperapi/internal/apperr"
)

const (
	// MaxFileSize is the upload ceiling (10 MiB).
	MaxFileSize int64 = 10 << 20
	// PDFContentType is the only accepted media type.
	PDFContentType = "application/pdf"

	sniffLen   = 512
	nameRandom = 1_000_000_000
)

// checkDeclared rejects uploads whose declared media type or size is unacceptable.
// It runs before anything is written.
func checkDeclared(contentType string, size int64) error {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt != PDFContentType {
		return apperr.ErrUnsupportedMediaType
	}
	if size > MaxFileSize {
		return apperr.ErrPayloadTooLarge
	}
	return nil
}

// sniffPDF inspects the leading bytes of r and returns a reader that still
// yields the full stream.
func sniffPDF(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read upload: %v", apperr.ErrStorage, err)
	}
	if len(head) == 0 || !mimetype.Detect(head).Is(PDFContentType) {
		return nil, apperr.ErrUnsupportedMediaType
	}
	return br, nil
}

// prepare runs the declared and sniffed checks and returns the reader to persist,
// capped one byte past MaxFileSize so oversize streams are detectable.
func prepare(r io.Reader, contentType string, size int64) (io.Reader, error) {
	if err := checkDeclared(contentType, size); err != nil {
		return nil, err
	}
	body, err := sniffPDF(r)
	if err != nil {
		return nil, err
	}
	return io.LimitReader(body, MaxFileSize+1), nil
}

// GenerateName derives a collision-resistant file name from the current time,
// a random suffix and the original extension.
func GenerateName(originalName string, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(nameRandom))
	if err != nil {
		return "", fmt.Errorf("%w: generate name: %v", apperr.ErrStorage, err)
	}
	return fmt.Sprintf("%d-%d%s", now.UnixMilli(), n.Int64(), extension(originalName)), nil
}

func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 {
		return ".pdf"
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".pdf"
		}
	}
	return ext
}
