// Package storage manages generated artifact files on disk. Artifacts are
// written to a temp file first and published with an atomic rename, so a
// failed generation never leaves a partial file behind a servable name.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/liyue/office-engine/internal/types"
)

// contentTypes whitelists servable artifact extensions.
var contentTypes = map[string]string{
	".docx": types.DocTypeWord.ContentType(),
	".xlsx": types.DocTypeExcel.ContentType(),
	".pptx": types.DocTypePPT.ContentType(),
}

// Store owns a single artifact directory.
type Store struct {
	dir string
}

// NewStore creates the artifact directory if needed and returns a store
// rooted at its absolute path.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute artifact directory path.
func (s *Store) Dir() string {
	return s.dir
}

// NewFilename returns a fresh uuid-based artifact filename for ext.
func (s *Store) NewFilename(ext string) (string, error) {
	if _, ok := contentTypes[ext]; !ok {
		return "", fmt.Errorf("%w: unsupported extension %q", ErrInvalidName, ext)
	}
	return uuid.NewString() + ext, nil
}

// CreateTemp opens a temp file in the artifact directory. The .partial
// suffix keeps it invisible to Resolve until published.
func (s *Store) CreateTemp(ext string) (*os.File, error) {
	f, err := os.CreateTemp(s.dir, "artifact-*"+ext+".partial")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp artifact: %w", err)
	}
	return f, nil
}

// Publish flushes tmp to disk and renames it to filename inside the store.
// Returns the final absolute path. tmp is closed either way.
func (s *Store) Publish(tmp *os.File, filename string) (string, error) {
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}

	final := filepath.Join(s.dir, filename)
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to publish artifact: %w", err)
	}
	return final, nil
}

// Discard closes and deletes an unpublished temp file. Safe on nil.
func (s *Store) Discard(tmp *os.File) {
	if tmp == nil {
		return
	}
	tmp.Close()
	os.Remove(tmp.Name())
}

// Resolve validates a download name and maps it to an absolute path and
// content type. Traversal attempts and unknown extensions are rejected
// before the filesystem is consulted.
func (s *Store) Resolve(name string) (string, string, error) {
	if name == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	ctype, ok := contentTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported extension %q", ErrInvalidName, filepath.Ext(name))
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", "", &NotFoundError{Name: name}
	}
	return path, ctype, nil
}

// ArtifactCount reports how many published artifacts the store holds.
func (s *Store) ArtifactCount() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact dir: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := contentTypes[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			count++
		}
	}
	return count, nil
}
