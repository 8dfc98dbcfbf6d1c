// Package storage resolves stored document references to local files the
// browser can attach, and persists attempt screenshots. References are
// relative paths under a single base directory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore materializes document references and saves screenshots.
type FileStore struct {
	baseDir string
}

// NewFileStore roots a store at baseDir, creating it if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &FileStore{baseDir: abs}, nil
}

// resolve maps a reference to an absolute path, rejecting escapes from the
// base directory.
func (s *FileStore) resolve(ref string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(ref))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid file reference: %s", ref)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}

// Materialize returns a local path for a stored document reference. The file
// must already exist; candidate documents are uploaded out of band.
func (s *FileStore) Materialize(ref string) (string, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("document %s not available: %w", ref, err)
	}
	return path, nil
}

// SaveScreenshot writes screenshot bytes under screenshots/ and returns the
// stored reference.
func (s *FileStore) SaveScreenshot(name string, data []byte) (string, error) {
	ref := "screenshots/" + filepath.Base(name)
	path, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return ref, nil
}
