// Package fs implements the StatusRepository port on the local filesystem.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adsb-labs/sbsship/internal/domain"
)

const statusFileName = "status.json"

// StatusFileRepository implements ports.StatusRepository using a JSON file.
type StatusFileRepository struct {
	dir string
}

// NewStatusFileRepository creates a new StatusFileRepository for the given directory.
func NewStatusFileRepository(dir string) *StatusFileRepository {
	return &StatusFileRepository{dir: dir}
}

// Load retrieves the last saved status from disk.
// Returns an empty status and nil error if no status file exists.
func (r *StatusFileRepository) Load(ctx context.Context) (domain.Status, error) {
	path := filepath.Join(r.dir, statusFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Status{}, nil
		}
		return domain.Status{}, err
	}

	var status domain.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.Status{}, err
	}

	return status, nil
}

// Save persists the current status atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (r *StatusFileRepository) Save(ctx context.Context, status domain.Status) error {
	// Ensure directory exists
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	path := filepath.Join(r.dir, statusFileName)
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmp, path)
}

// Path returns the full path to the status file.
func (r *StatusFileRepository) Path() string {
	return filepath.Join(r.dir, statusFileName)
}
