package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/c360studio/semproposal/proposal"
)

// FileBackend stores the snapshot as one JSON file. Writes go to a temp file
// in the same directory and are renamed into place, so readers never see a
// partial snapshot.
type FileBackend struct {
	path string

	mu         sync.Mutex
	lastDigest string
}

// NewFileBackend creates a backend writing to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the snapshot file path.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads and decodes the snapshot file.
func (b *FileBackend) Load(ctx context.Context) (*proposal.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}

	snap, err := proposal.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	b.remember(data)
	return snap, nil
}

// Save encodes snap and atomically replaces the snapshot file.
func (b *FileBackend) Save(ctx context.Context, snap *proposal.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := proposal.MarshalSnapshot(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}

	b.remember(data)
	return nil
}

// IsCurrent reports whether data is what this backend last read or wrote.
// The watcher uses it to skip its own writes.
func (b *FileBackend) IsCurrent(data []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastDigest != "" && b.lastDigest == ContentHash(data)
}

func (b *FileBackend) remember(data []byte) {
	digest := ContentHash(data)
	b.mu.Lock()
	b.lastDigest = digest
	b.mu.Unlock()
}
