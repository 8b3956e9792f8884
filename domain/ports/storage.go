package ports

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidPath is returned for object keys that escape the storage root.
var ErrInvalidPath = errors.New("invalid storage path")

// StoragePort คือ interface หลักสำหรับ storage
// ทำให้เปลี่ยน storage provider ได้ง่าย (Local, S3, MinIO)
type StoragePort interface {
	// UploadFile stores size bytes from file under path and returns a URL
	// for it. size may be -1 when unknown.
	UploadFile(ctx context.Context, file io.Reader, path string, size int64, contentType string) (string, error)

	// DeleteFile removes path. Missing files are not an error.
	DeleteFile(ctx context.Context, path string) error

	GetFileURL(path string) string

	// GetProviderName ชื่อ provider (local, s3)
	GetProviderName() string
}
