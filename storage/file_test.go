package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_LoadMissing(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "none.json"))

	_, err := b.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileBackend_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "proposals.json")
	b := NewFileBackend(path)

	store := newTestStore(t)
	id := seedProposal(store, "Contoso")
	require.NoError(t, b.Save(ctx, store.Snapshot()))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")

	snap, err := b.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, snap.Proposals, id)
	assert.Equal(t, "Contoso", snap.Proposals[id].ClientName)
	require.NotNil(t, snap.ActiveProposalID)
	assert.Equal(t, id, *snap.ActiveProposalID)

	restored := newTestStore(t)
	loaded, err := LoadInto(ctx, b, restored)
	require.NoError(t, err)
	assert.True(t, loaded)
	p, ok := restored.GetProposal(id)
	require.True(t, ok)
	assert.True(t, p.DueDate.Equal(testNow.AddDate(0, 0, 30)))
}

func TestFileBackend_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proposals.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileBackend(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileBackend_IsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proposals.json")
	b := NewFileBackend(path)
	assert.False(t, b.IsCurrent([]byte("{}")))

	store := newTestStore(t)
	seedProposal(store, "Initech")
	require.NoError(t, b.Save(context.Background(), store.Snapshot()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, b.IsCurrent(data))
	assert.False(t, b.IsCurrent(append(data, ' ')))
}

func TestFileBackend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewFileBackend(filepath.Join(t.TempDir(), "p.json"))

	assert.ErrorIs(t, b.Save(ctx, newTestStore(t).Snapshot()), context.Canceled)
	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadInto_NoSnapshot(t *testing.T) {
	store := newTestStore(t)
	id := seedProposal(store, "Globex")

	loaded, err := LoadInto(context.Background(), NewFileBackend(filepath.Join(t.TempDir(), "x.json")), store)
	require.NoError(t, err)
	assert.False(t, loaded)
	_, ok := store.GetProposal(id)
	assert.True(t, ok, "store untouched")
}
