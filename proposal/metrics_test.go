package proposal

import "testing"

func TestOverallConfidence(t *testing.T) {
	tests := []struct {
		name        string
		confidences []float64
		want        float64
	}{
		{"no sections", nil, 0},
		{"single", []float64{0.42}, 0.42},
		{"mean", []float64{0.8, 0.5}, 0.65},
		{"rounds half up", []float64{0.125, 0.125}, 0.13},
		{"rounds down", []float64{0.1, 0.2, 0.2}, 0.17},
		{"thirds", []float64{1, 0, 0}, 0.33},
		{"all certain", []float64{1, 1, 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sections []Section
			for _, c := range tt.confidences {
				sections = append(sections, Section{Confidence: c})
			}
			if got := OverallConfidence(sections); got != tt.want {
				t.Errorf("OverallConfidence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotalWordCount_UsesStoredCounts(t *testing.T) {
	sections := []Section{
		{Content: "one two three", WordCount: 3},
		{Content: "this content is ignored", WordCount: 10},
	}
	if got := TotalWordCount(sections); got != 13 {
		t.Errorf("TotalWordCount() = %d, want 13", got)
	}
}

func TestEstimateWordCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"  leading and trailing  ", 3},
		{"tabs\tand\nnewlines", 3},
		{"Security & Compliance", 3},
	}

	for _, tt := range tests {
		if got := EstimateWordCount(tt.text); got != tt.want {
			t.Errorf("EstimateWordCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestCompletionPercentage(t *testing.T) {
	tests := []struct {
		name   string
		states []ApprovalState
		want   int
	}{
		{"no sections", nil, 0},
		{"none approved", []ApprovalState{ApprovalDraft, ApprovalPending}, 0},
		{"one of three", []ApprovalState{ApprovalApproved, ApprovalDraft, ApprovalRejected}, 33},
		{"two of three", []ApprovalState{ApprovalApproved, ApprovalApproved, ApprovalDraft}, 67},
		{"half", []ApprovalState{ApprovalApproved, ApprovalNeedsRevision}, 50},
		{"all", []ApprovalState{ApprovalApproved}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Proposal{}
			for _, s := range tt.states {
				p.Sections = append(p.Sections, Section{ApprovalState: s})
			}
			if got := CompletionPercentage(p); got != tt.want {
				t.Errorf("CompletionPercentage() = %d, want %d", got, tt.want)
			}
		})
	}

	if got := CompletionPercentage(nil); got != 0 {
		t.Errorf("CompletionPercentage(nil) = %d, want 0", got)
	}
}

func TestApprovalState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to ApprovalState
		want     bool
	}{
		{ApprovalDraft, ApprovalPending, true},
		{ApprovalDraft, ApprovalApproved, false},
		{ApprovalPending, ApprovalApproved, true},
		{ApprovalPending, ApprovalRejected, true},
		{ApprovalPending, ApprovalNeedsRevision, true},
		{ApprovalRejected, ApprovalPending, true},
		{ApprovalNeedsRevision, ApprovalPending, true},
		{ApprovalNeedsRevision, ApprovalApproved, false},
		{ApprovalApproved, ApprovalPending, false},
		{ApprovalApproved, ApprovalRejected, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	if !StatusPendingApproval.IsValid() || Status("archived").IsValid() {
		t.Error("Status.IsValid mismatch")
	}
	if !ApprovalNeedsRevision.IsValid() || ApprovalState("done").IsValid() {
		t.Error("ApprovalState.IsValid mismatch")
	}
	if !PriorityMedium.IsValid() || Priority("urgent").IsValid() {
		t.Error("Priority.IsValid mismatch")
	}
}
