// Package uploads stores user-supplied files such as profile pictures.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Store saves an uploaded file and returns the name it was stored under.
// Remove discards a file previously returned by Save.
type Store interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(name string) error
}

// MaxFileSize is the largest upload accepted by LocalStore.
const MaxFileSize = 5 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LocalStore writes uploads into a directory on local disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed and returns a store writing into it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the directory files are written to.
func (s *LocalStore) Dir() string { return s.dir }

// Save stores r under a unique name derived from filename. Only image
// extensions are accepted and the content is capped at MaxFileSize.
func (s *LocalStore) Save(filename string, r io.Reader) (string, error) {
	name := SecureFilename(filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	stored := uuid.NewString() + "_" + name
	path := filepath.Join(s.dir, stored)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", stored, err)
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxFileSize+1))
	closeErr := f.Close()
	if err == nil && n > MaxFileSize {
		err = fmt.Errorf("file exceeds %d bytes", MaxFileSize)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to store %s: %w", stored, err)
	}
	return stored, nil
}

// Remove deletes a stored file. Removing a file that is already gone is not
// an error.
func (s *LocalStore) Remove(name string) error {
	if name == "" || name != filepath.Base(name) || name != SecureFilename(name) {
		return fmt.Errorf("invalid stored name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// SecureFilename reduces a client-supplied name to a safe base name.
func SecureFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}
