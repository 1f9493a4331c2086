package proposal

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotVersion is the current persisted layout version.
const SnapshotVersion = 1

// Snapshot is the persisted form of the store: every proposal keyed by id
// plus the active pointer. Dates encode as RFC 3339 strings and decode back
// to time.Time, so date arithmetic keeps working after a reload.
type Snapshot struct {
	Version          int                  `json:"version"`
	Proposals        map[string]*Proposal `json:"proposals"`
	ActiveProposalID *string              `json:"active_proposal_id"`
	SavedAt          time.Time            `json:"saved_at"`
}

// Snapshot returns a deep copy of the current store state.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Version:   SnapshotVersion,
		Proposals: make(map[string]*Proposal, len(s.proposals)),
		SavedAt:   s.clock(),
	}
	for id, p := range s.proposals {
		snap.Proposals[id] = p.Clone()
	}
	if s.activeID != "" {
		active := s.activeID
		snap.ActiveProposalID = &active
	}
	return snap
}

// Restore replaces the whole store state with snap. Proposals are taken as
// given, like ImportProposal.
func (s *Store) Restore(snap *Snapshot) {
	proposals := make(map[string]*Proposal)
	active := ""
	if snap != nil {
		for id, p := range snap.Proposals {
			if p == nil {
				continue
			}
			proposals[id] = p.Clone()
		}
		if snap.ActiveProposalID != nil {
			active = *snap.ActiveProposalID
		}
	}

	s.mu.Lock()
	s.proposals = proposals
	s.activeID = active
	s.mu.Unlock()
	s.publish(OpRestore, "", s.clock())
}

// MarshalSnapshot encodes a snapshot as indented JSON.
func MarshalSnapshot(snap *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a snapshot. Proposal map keys win over the ids
// stored inside each proposal.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Proposals == nil {
		snap.Proposals = make(map[string]*Proposal)
	}
	for id, p := range snap.Proposals {
		if p == nil {
			delete(snap.Proposals, id)
			continue
		}
		p.ID = id
	}
	return &snap, nil
}
