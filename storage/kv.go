package storage

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semproposal/proposal"
)

// DefaultBucket is the KV bucket used when none is configured.
const DefaultBucket = "SEMPROPOSAL_PROPOSALS"

const (
	metaKey           = "meta"
	proposalKeyPrefix = "proposal."
)

var validKey = regexp.MustCompile(`^[-_=a-zA-Z0-9]+$`)

// kvBucket is the subset of jetstream.KeyValue the backend uses.
type kvBucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

// snapshotMeta is stored under metaKey; proposals live under their own keys.
type snapshotMeta struct {
	Version          int       `json:"version"`
	ActiveProposalID *string   `json:"active_proposal_id"`
	SavedAt          time.Time `json:"saved_at"`
}

// KVBackend stores each proposal under its own key in a JetStream KV bucket,
// plus one metadata key for the active pointer. Bucket history keeps prior
// revisions of every proposal.
type KVBackend struct {
	kv kvBucket
}

// NewKVBackend opens bucket, creating it if it does not exist.
func NewKVBackend(ctx context.Context, js jetstream.JetStream, bucket string) (*KVBackend, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	return &KVBackend{kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Semproposal proposal snapshots",
		History:     5,
	})
}

// Load assembles a snapshot from the bucket. Entries that fail to decode are
// skipped.
func (b *KVBackend) Load(ctx context.Context) (*proposal.Snapshot, error) {
	entry, err := b.kv.Get(ctx, metaKey)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot meta: %w", err)
	}
	var meta snapshotMeta
	if err := json.Unmarshal(entry.Value(), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot meta: %w", err)
	}
	if meta.Version > proposal.SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", meta.Version)
	}

	keys, err := b.proposalKeys(ctx)
	if err != nil {
		return nil, err
	}

	snap := &proposal.Snapshot{
		Version:          meta.Version,
		Proposals:        make(map[string]*proposal.Proposal, len(keys)),
		ActiveProposalID: meta.ActiveProposalID,
		SavedAt:          meta.SavedAt,
	}
	for _, key := range keys {
		entry, err := b.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var p proposal.Proposal
		if err := json.Unmarshal(entry.Value(), &p); err != nil {
			continue
		}
		snap.Proposals[p.ID] = &p
	}
	return snap, nil
}

// Save writes every proposal, deletes keys for proposals no longer present,
// and writes the metadata key last.
func (b *KVBackend) Save(ctx context.Context, snap *proposal.Snapshot) error {
	existing, err := b.proposalKeys(ctx)
	if err != nil {
		return err
	}
	stale := make(map[string]bool, len(existing))
	for _, key := range existing {
		stale[key] = true
	}

	ids := make([]string, 0, len(snap.Proposals))
	for id := range snap.Proposals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		data, err := json.Marshal(snap.Proposals[id])
		if err != nil {
			return fmt.Errorf("marshal proposal %s: %w", id, err)
		}
		key := ProposalKey(id)
		if _, err := b.kv.Put(ctx, key, data); err != nil {
			return fmt.Errorf("put proposal %s: %w", id, err)
		}
		delete(stale, key)
	}

	for key := range stale {
		if err := b.kv.Delete(ctx, key); err != nil && !isNotFound(err) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}

	meta, err := json.Marshal(snapshotMeta{
		Version:          proposal.SnapshotVersion,
		ActiveProposalID: snap.ActiveProposalID,
		SavedAt:          snap.SavedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot meta: %w", err)
	}
	if _, err := b.kv.Put(ctx, metaKey, meta); err != nil {
		return fmt.Errorf("put snapshot meta: %w", err)
	}
	return nil
}

func (b *KVBackend) proposalKeys(ctx context.Context) ([]string, error) {
	keys, err := b.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list keys: %w", err)
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, proposalKeyPrefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// ProposalKey maps a proposal id to its bucket key. Ids with characters KV
// keys do not allow, and ids starting with the x marker, are hex-encoded.
func ProposalKey(id string) string {
	if validKey.MatchString(id) && !strings.HasPrefix(id, "x") {
		return proposalKeyPrefix + id
	}
	return proposalKeyPrefix + "x" + hex.EncodeToString([]byte(id))
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) ||
		(err != nil && strings.Contains(err.Error(), "key not found"))
}
