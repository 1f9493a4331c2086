package proposal

import (
	"math"
	"strings"
)

// OverallConfidence returns the mean section confidence rounded half-up to
// two decimals, or 0 when there are no sections.
func OverallConfidence(sections []Section) float64 {
	if len(sections) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sections {
		sum += s.Confidence
	}
	return roundTo(sum/float64(len(sections)), 2)
}

// TotalWordCount sums the stored word count of each section. Content is not
// re-tokenized here.
func TotalWordCount(sections []Section) int {
	total := 0
	for _, s := range sections {
		total += s.WordCount
	}
	return total
}

// EstimateWordCount counts whitespace-delimited tokens in text.
func EstimateWordCount(text string) int {
	return len(strings.Fields(text))
}

// CompletionPercentage is the share of approved sections as a whole
// percentage, or 0 when the proposal has no sections.
func CompletionPercentage(p *Proposal) int {
	if p == nil || len(p.Sections) == 0 {
		return 0
	}
	approved := 0
	for _, s := range p.Sections {
		if s.ApprovalState == ApprovalApproved {
			approved++
		}
	}
	return int(math.Floor(100*float64(approved)/float64(len(p.Sections)) + 0.5))
}

// recompute refreshes every derived field from the current sections. All
// mutations that can touch sections end here.
func recompute(p *Proposal) {
	p.OverallConfidence = OverallConfidence(p.Sections)
	p.TotalWordCount = TotalWordCount(p.Sections)
}

// roundTo rounds half-up to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Floor(v*scale+0.5) / scale
}
