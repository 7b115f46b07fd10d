package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage errors
var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrFileNotFound  = errors.New("file not found")
	ErrFileTooLarge  = errors.New("file exceeds size limit")
	ErrNotAnImage    = errors.New("file is not an image")
)

// MaxInlineImageBytes is the maximum allowed inline image size (8 MiB)
const MaxInlineImageBytes = 8 * 1024 * 1024

// FileStorage defines the interface for stored composer uploads and
// message attachments
type FileStorage interface {
	Save(filename string, content io.Reader) (string, error)
	Get(filePath string) (io.ReadCloser, error)
	Delete(filePath string) error
}

// localStorage implements FileStorage using the local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath string) (FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &localStorage{basePath: basePath}, nil
}

// ValidateInlineImage checks MIME type and size before anything touches
// the network or the disk. Both checks are local and synchronous.
func ValidateInlineImage(mimeType string, size int64) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return ErrNotAnImage
	}
	if size > MaxInlineImageBytes {
		return ErrFileTooLarge
	}
	return nil
}

// validatePath ensures path is within basePath (prevents traversal)
func (s *localStorage) validatePath(filePath string) (string, error) {
	cleanPath := filepath.Clean(filePath)

	if filepath.IsAbs(cleanPath) || strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}

	fullPath := filepath.Join(s.basePath, cleanPath)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return "", ErrPathTraversal
	}
	return absPath, nil
}

// Save stores a file under a generated unique name and returns the
// relative path
func (s *localStorage) Save(filename string, content io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	uniqueName := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	// Shard by the first two characters of the UUID
	subDir := uniqueName[:2]
	if err := os.MkdirAll(filepath.Join(s.basePath, subDir), 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	filePath := filepath.Join(subDir, uniqueName)
	fullPath := filepath.Join(s.basePath, filePath)

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return filePath, nil
}

// Get retrieves a file by its path
func (s *localStorage) Get(filePath string) (io.ReadCloser, error) {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a file by its path
func (s *localStorage) Delete(filePath string) error {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
