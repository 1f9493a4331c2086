package proposal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore()
	id := s.CreateProposal(testProposal(section("A", 0.5, "a b")))
	expires := testEpoch.Add(72 * time.Hour)
	_, err := s.AddNudge(id, Nudge{Message: "renewal window", ExpiresAt: &expires})
	require.NoError(t, err)

	data, err := MarshalSnapshot(s.Snapshot())
	require.NoError(t, err)

	snap, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	require.NotNil(t, snap.ActiveProposalID)
	assert.Equal(t, id, *snap.ActiveProposalID)

	restored := newTestStore()
	restored.Restore(snap)

	p, ok := restored.GetProposal(id)
	require.True(t, ok)
	original, _ := s.GetProposal(id)
	assert.True(t, original.DueDate.Equal(p.DueDate))
	assert.Equal(t, 30, int(p.DueDate.Sub(testEpoch).Hours()/24), "dates stay usable for arithmetic")
	require.NotNil(t, p.Nudges[0].ExpiresAt)
	assert.True(t, expires.Equal(*p.Nudges[0].ExpiresAt))
	assert.Equal(t, original.OverallConfidence, p.OverallConfidence)
	assert.Equal(t, id, restored.ActiveProposalID())
}

func TestSnapshot_EncodesDatesAsStrings(t *testing.T) {
	s := newTestStore()
	s.CreateProposal(testProposal())

	data, err := MarshalSnapshot(s.Snapshot())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	proposals := raw["proposals"].(map[string]any)
	require.Len(t, proposals, 1)
	for _, v := range proposals {
		p := v.(map[string]any)
		_, isString := p["due_date"].(string)
		assert.True(t, isString, "due_date should encode as a string")
		assert.IsType(t, []any{}, p["sections"])
	}
}

func TestSnapshot_EmptyListsEncodeAsArrays(t *testing.T) {
	s := newTestStore()
	id := s.CreateProposal(testProposal(section("A", 0.5, "a b")))
	_, err := s.AddQuestion(id, OpenQuestion{Question: "Who signs?"})
	require.NoError(t, err)

	data, err := MarshalSnapshot(s.Snapshot())
	require.NoError(t, err)

	var raw struct {
		Proposals map[string]struct {
			Sections []struct {
				Sources json.RawMessage `json:"sources"`
			} `json:"sections"`
			OpenQuestions []struct {
				RelatedSectionIDs json.RawMessage `json:"related_section_ids"`
			} `json:"open_questions"`
		} `json:"proposals"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	p := raw.Proposals[id]
	require.Len(t, p.Sections, 1)
	assert.JSONEq(t, `[]`, string(p.Sections[0].Sources))
	require.Len(t, p.OpenQuestions, 1)
	assert.JSONEq(t, `[]`, string(p.OpenQuestions[0].RelatedSectionIDs))
}

func TestSnapshot_NoActiveProposal(t *testing.T) {
	s := newTestStore()
	s.CreateProposal(testProposal())
	s.ClearActiveProposal()

	data, err := MarshalSnapshot(s.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"active_proposal_id": null`)

	snap, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Nil(t, snap.ActiveProposalID)
}

func TestSnapshot_IsDetached(t *testing.T) {
	s := newTestStore()
	id := s.CreateProposal(testProposal(section("A", 0.5, "a")))

	snap := s.Snapshot()
	snap.Proposals[id].Sections[0].Title = "changed"

	p, _ := s.GetProposal(id)
	assert.Equal(t, "A", p.Sections[0].Title)
}

func TestUnmarshalSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		check   func(t *testing.T, snap *Snapshot)
	}{
		{
			name: "map key wins over embedded id",
			data: `{"version":1,"proposals":{"prop-a":{"id":"prop-b","title":"T"}},"active_proposal_id":"prop-a"}`,
			check: func(t *testing.T, snap *Snapshot) {
				require.Contains(t, snap.Proposals, "prop-a")
				assert.Equal(t, "prop-a", snap.Proposals["prop-a"].ID)
			},
		},
		{
			name: "null proposals dropped",
			data: `{"version":1,"proposals":{"prop-a":null}}`,
			check: func(t *testing.T, snap *Snapshot) {
				assert.Empty(t, snap.Proposals)
			},
		},
		{
			name: "missing proposals map",
			data: `{"version":1}`,
			check: func(t *testing.T, snap *Snapshot) {
				assert.NotNil(t, snap.Proposals)
			},
		},
		{name: "future version", data: `{"version":99,"proposals":{}}`, wantErr: true},
		{name: "malformed", data: `{"version":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := UnmarshalSnapshot([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, snap)
		})
	}
}

func TestRestore_Nil(t *testing.T) {
	s := newTestStore()
	s.CreateProposal(testProposal())

	s.Restore(nil)

	assert.Empty(t, s.GetAllProposals())
	assert.Empty(t, s.ActiveProposalID())
}
