// Package store stages uploaded originals and processed results on disk.
//
// Every upload gets a random UUID. The original is kept as
// <upload dir>/<id><ext> and the latest processed result as
// <output dir>/<id>_processed<ext>. Ids are parsed as UUIDs before any path
// is built, so client supplied ids cannot escape either directory.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no file exists for an id.
var ErrNotFound = errors.New("image not found")

// ErrInvalidID is returned for ids that are not UUIDs.
var ErrInvalidID = errors.New("invalid image id")

const processedSuffix = "_processed"

// Store manages the two staging directories.
type Store struct {
	uploadDir string
	outputDir string
}

// New creates both directories if needed.
func New(uploadDir, outputDir string) (*Store, error) {
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return &Store{uploadDir: uploadDir, outputDir: outputDir}, nil
}

// NewID returns a fresh random id.
func NewID() string {
	return uuid.New().String()
}

// ValidateID rejects anything that is not a canonical UUID string.
func ValidateID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil || u.String() != id {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// SaveUpload writes data as a new original and returns its id and path. The
// extension of name is kept, lower-cased; names without one are stored as .bin.
func (s *Store) SaveUpload(name string, data []byte) (id, path string, err error) {
	id = NewID()
	path = filepath.Join(s.uploadDir, id+cleanExt(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to save upload: %w", err)
	}
	return id, path, nil
}

// Original returns the path of the original upload for id.
func (s *Store) Original(id string) (string, error) {
	return s.find(s.uploadDir, id, "")
}

// Processed returns the path of the latest processed result for id.
func (s *Store) Processed(id string) (string, error) {
	return s.find(s.outputDir, id, processedSuffix)
}

// ProcessedPath returns where the processed result for id with extension ext
// is written. Older results with a different extension are removed so that
// Processed stays unambiguous.
func (s *Store) ProcessedPath(id, ext string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	path := filepath.Join(s.outputDir, id+processedSuffix+ext)
	old, _ := filepath.Glob(filepath.Join(s.outputDir, id+processedSuffix+".*"))
	for _, p := range old {
		if p != path {
			os.Remove(p)
		}
	}
	return path, nil
}

// Delete removes the original and processed files for id and returns the
// removed paths.
func (s *Store) Delete(id string) ([]string, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var deleted []string
	for _, pattern := range []string{
		filepath.Join(s.uploadDir, id+".*"),
		filepath.Join(s.outputDir, id+processedSuffix+".*"),
	} {
		matches, _ := filepath.Glob(pattern)
		for _, p := range matches {
			if err := os.Remove(p); err != nil {
				return deleted, fmt.Errorf("failed to delete %s: %w", p, err)
			}
			deleted = append(deleted, p)
		}
	}
	if len(deleted) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return deleted, nil
}

func (s *Store) find(dir, id, suffix string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	matches, err := filepath.Glob(filepath.Join(dir, id+suffix+".*"))
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return matches[0], nil
}

// cleanExt returns the lower-cased extension of name, or ".bin" when it has
// none or contains anything other than letters and digits.
func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 {
		return ".bin"
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".bin"
		}
	}
	return ext
}
