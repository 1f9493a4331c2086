// Package storage persists proposal store snapshots to a local file or a
// NATS JetStream key-value bucket, and keeps the store and its persisted
// copy in step.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/c360studio/semproposal/proposal"
)

// Backend loads and saves whole-store snapshots.
type Backend interface {
	// Load returns the saved snapshot, or ErrNotFound if none exists.
	Load(ctx context.Context) (*proposal.Snapshot, error)

	// Save replaces the saved snapshot.
	Save(ctx context.Context, snap *proposal.Snapshot) error
}

// Snapshotter is the part of the proposal engine persistence needs.
type Snapshotter interface {
	Snapshot() *proposal.Snapshot
	Restore(snap *proposal.Snapshot)
	Subscribe(fn func(proposal.Event)) (unsubscribe func())
}

// LoadInto restores the backend's snapshot into store. A backend with no
// snapshot leaves the store untouched and reports false.
func LoadInto(ctx context.Context, b Backend, store Snapshotter) (bool, error) {
	snap, err := b.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	store.Restore(snap)
	return true, nil
}

// ContentHash returns the hex SHA-256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
