package matcher

import "github.com/timmy/artmatch/internal/domain"

// Filter rejects candidates that structurally contradict a poem.
// It only rejects on explicit conflicts; missing data always passes.
type Filter struct{}

// NewFilter creates a Filter.
func NewFilter() *Filter {
	return &Filter{}
}

// IsEligible reports whether candidate may be scored for analysis.
func (f *Filter) IsEligible(analysis *domain.PoemAnalysis, candidate *domain.Candidate) bool {
	if analysis == nil || candidate == nil {
		return true
	}

	if excluded, ok := ToneExclusions[analysis.EmotionalTone]; ok {
		if intersects(candidate.Codes(), excluded) {
			return false
		}
	}

	v := candidate.Visual
	if v == nil {
		return true
	}

	if analysis.Narrative.HumanPresence == "central" && v.HumanPresence == "absent" {
		return false
	}
	if incompatibleTimes[[2]string{analysis.Narrative.TimeOfDay, v.TimeOfDay}] {
		return false
	}
	return true
}
