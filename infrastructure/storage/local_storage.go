package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"taskflow/domain/ports"
)

// LocalStorage implements StoragePort สำหรับเก็บไฟล์ใน local filesystem
type LocalStorage struct {
	basePath string // เส้นทางหลักที่เก็บไฟล์ (เช่น ./uploads)
	baseURL  string // URL สำหรับเข้าถึงไฟล์ (เช่น http://localhost:8080/files)
}

type LocalStorageConfig struct {
	BasePath string // ./uploads
	BaseURL  string // http://localhost:8080/files
}

// NewLocalStorage สร้าง LocalStorage instance
func NewLocalStorage(config LocalStorageConfig) (ports.StoragePort, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: config.BasePath,
		baseURL:  strings.TrimSuffix(config.BaseURL, "/"),
	}, nil
}

// resolve maps an object key to a path under basePath.
func (l *LocalStorage) resolve(path string) (string, string, error) {
	key := strings.TrimPrefix(filepath.ToSlash(strings.ReplaceAll(path, "\\", "/")), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", "", ports.ErrInvalidPath
	}
	return key, filepath.Join(l.basePath, filepath.FromSlash(key)), nil
}

// UploadFile อัปโหลดไฟล์ไปยัง local filesystem
func (l *LocalStorage) UploadFile(ctx context.Context, file io.Reader, path string, size int64, contentType string) (string, error) {
	key, fullPath, err := l.resolve(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	src := file
	if size >= 0 {
		src = io.LimitReader(file, size)
	}
	if _, err := io.Copy(dst, src); err != nil {
		// ลบไฟล์ที่สร้างไม่สำเร็จ
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return l.GetFileURL(key), nil
}

// DeleteFile ลบไฟล์จาก local filesystem
func (l *LocalStorage) DeleteFile(ctx context.Context, path string) error {
	_, fullPath, err := l.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetFileURL สร้าง URL สำหรับเข้าถึงไฟล์
func (l *LocalStorage) GetFileURL(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return l.baseURL + path
}

func (l *LocalStorage) GetProviderName() string {
	return "local"
}
