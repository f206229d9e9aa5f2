package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultMaxFileSize = 10 * 1024 * 1024

var (
	ErrNoFile          = errors.New("no file provided")
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrInvalidMimeType = errors.New("file type is not allowed")
)

// AllowedMimeTypes lists the image formats accepted for avatars and covers.
var AllowedMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Storage persists an object under key and returns its public URL.
type Storage interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Object is a stored upload.
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Uploader validates multipart files and hands them to a Storage.
type Uploader struct {
	storage Storage
	maxSize int64
	now     func() time.Time
}

func NewUploader(storage Storage, maxSize int64) *Uploader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Uploader{storage: storage, maxSize: maxSize, now: time.Now}
}

// Upload stores fh under folder/YYYY/MM/DD/<uuid>_<name><ext>.
func (u *Uploader) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (*Object, error) {
	if fh == nil {
		return nil, ErrNoFile
	}
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fh.Size > u.maxSize {
		return nil, ErrFileTooLarge
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// Detect MIME type from first 512 bytes
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	mimeType := strings.Split(http.DetectContentType(buf[:n]), ";")[0]

	ext, ok := AllowedMimeTypes[mimeType]
	if !ok {
		return nil, ErrInvalidMimeType
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}

	key := u.objectKey(folder, fh.Filename, ext)
	url, err := u.storage.Put(ctx, key, file, fh.Size, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	return &Object{Key: key, URL: url, ContentType: mimeType, Size: fh.Size}, nil
}

// Delete removes a stored object; used to undo an upload when the database
// write that references it fails.
func (u *Uploader) Delete(ctx context.Context, key string) error {
	return u.storage.Delete(ctx, key)
}

func (u *Uploader) objectKey(folder, original, ext string) string {
	now := u.now()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s_%s%s",
		strings.Trim(folder, "/"), now.Year(), now.Month(), now.Day(), uuid.NewString(), sanitizeName(original), ext)
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name)) // strip extension (added separately)
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" || name == "_" {
		return "file"
	}
	return name
}
