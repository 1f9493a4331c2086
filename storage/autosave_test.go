package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semproposal/proposal"
)

// recordingBackend keeps every saved snapshot in memory.
type recordingBackend struct {
	mu    sync.Mutex
	saved []*proposal.Snapshot
	err   error
}

func (r *recordingBackend) Load(context.Context) (*proposal.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saved) == 0 {
		return nil, ErrNotFound
	}
	return r.saved[len(r.saved)-1], nil
}

func (r *recordingBackend) Save(_ context.Context, snap *proposal.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, snap)
	return nil
}

func (r *recordingBackend) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func TestAutosaver_SavesAfterMutations(t *testing.T) {
	store := newTestStore(t)
	backend := &recordingBackend{}
	a := NewAutosaver(store, backend, nil)
	a.Start()
	a.Start()
	defer a.Stop()

	id := seedProposal(store, "Contoso")
	require.NoError(t, store.UpdateProposal(id, proposal.ProposalUpdate{Status: proposal.Ptr(proposal.StatusInReview)}))

	assert.Equal(t, 2, backend.count(), "one save per mutation even after a second Start")
	last, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, proposal.StatusInReview, last.Proposals[id].Status)

	saves, failures, lastErr := a.Stats()
	assert.Equal(t, 2, saves)
	assert.Zero(t, failures)
	assert.NoError(t, lastErr)
}

func TestAutosaver_IgnoresRestore(t *testing.T) {
	store := newTestStore(t)
	backend := &recordingBackend{}
	a := NewAutosaver(store, backend, nil)
	a.Start()
	defer a.Stop()

	store.Restore(&proposal.Snapshot{Version: proposal.SnapshotVersion})
	assert.Zero(t, backend.count())
}

func TestAutosaver_Stop(t *testing.T) {
	store := newTestStore(t)
	backend := &recordingBackend{}
	a := NewAutosaver(store, backend, nil)
	a.Start()
	seedProposal(store, "Contoso")
	a.Stop()
	seedProposal(store, "Initech")

	assert.Equal(t, 1, backend.count())
}

func TestAutosaver_FailureDoesNotFailMutation(t *testing.T) {
	store := newTestStore(t)
	backend := &recordingBackend{err: errors.New("disk full")}
	a := NewAutosaver(store, backend, nil)
	a.Start()
	defer a.Stop()

	id := seedProposal(store, "Contoso")
	_, ok := store.GetProposal(id)
	assert.True(t, ok)

	saves, failures, lastErr := a.Stats()
	assert.Zero(t, saves)
	assert.Equal(t, 1, failures)
	assert.EqualError(t, lastErr, "disk full")

	backend.mu.Lock()
	backend.err = nil
	backend.mu.Unlock()
	require.NoError(t, a.Save(context.Background()))
	_, _, lastErr = a.Stats()
	assert.NoError(t, lastErr)
}

// serialBackend records the peak number of overlapping Save calls.
type serialBackend struct {
	recordingBackend
	mu       sync.Mutex
	inflight int
	peak     int
}

func (b *serialBackend) Save(ctx context.Context, snap *proposal.Snapshot) error {
	b.mu.Lock()
	b.inflight++
	b.peak = max(b.peak, b.inflight)
	b.mu.Unlock()

	time.Sleep(time.Millisecond)
	err := b.recordingBackend.Save(ctx, snap)

	b.mu.Lock()
	b.inflight--
	b.mu.Unlock()
	return err
}

func TestAutosaver_ConcurrentMutationsSaveInOrder(t *testing.T) {
	store := proposal.NewStore()
	backend := &serialBackend{}
	a := NewAutosaver(store, backend, nil)
	a.Start()
	defer a.Stop()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seedProposal(store, fmt.Sprintf("Client %d", i))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, backend.peak, "saves overlapped")
	last, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, last.Proposals, n, "last write must hold every proposal")
}
