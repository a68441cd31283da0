package matcher

import (
	"math"
	"regexp"
	"strings"

	"github.com/timmy/artmatch/internal/domain"
)

const (
	primaryEmotionWorth   = 0.15
	secondaryEmotionWorth = 0.10

	// Raw concrete credit; the sub-score is raw / concreteMax.
	concreteSharedWorth  = 0.20
	concreteSharedTarget = 5
	concreteSettingWorth = 0.10
	concreteSpatialWorth = 0.05
	concreteTimeWorth    = 0.05
	concreteSeasonWorth  = 0.05
	concreteMax          = 0.35
	genrePartialCredit   = 0.5
	specificityCap       = 0.20
	bonusPerSharedObject = 0.05
	bonusSetting         = 0.15
	bonusTime            = 0.10
	bonusSeason          = 0.10
	bonusColor           = 0.05
	conflictPenalty      = 0.3
	avoidMultiplier      = 0.5
	visualThematicShare  = 0.8
	eraShare             = 0.2
	timelessSeason       = "timeless"
)

var codePattern = regexp.MustCompile(`^q\d+$`)

// Breakdown is every component of a score.
type Breakdown struct {
	Concrete       float64  `json:"concrete"`
	Theme          float64  `json:"theme"`
	Emotion        float64  `json:"emotion"`
	Genre          float64  `json:"genre"`
	Weighted       float64  `json:"weighted"`
	Bonus          float64  `json:"bonus"`
	Penalty        float64  `json:"penalty"`
	AvoidConflict  bool     `json:"avoid_conflict"`
	VisualThematic float64  `json:"visual_thematic"`
	Era            float64  `json:"era"`
	EraKnown       bool     `json:"era_known"`
	SharedObjects  []string `json:"shared_objects,omitempty"`
	Final          float64  `json:"final"`
}

// Scorer computes a bounded relevance score for a candidate.
// It is pure and safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer with the given weights.
// Invalid weights fall back to DefaultWeights.
func NewScorer(weights Weights) *Scorer {
	if weights.Validate() != nil {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the candidate's relevance in [0,1].
func (s *Scorer) Score(analysis *domain.PoemAnalysis, candidate *domain.Candidate, poetBirth, poetDeath *int) float64 {
	return s.Breakdown(analysis, candidate, poetBirth, poetDeath).Final
}

// Breakdown computes the score and returns all of its components.
func (s *Scorer) Breakdown(analysis *domain.PoemAnalysis, candidate *domain.Candidate, poetBirth, poetDeath *int) Breakdown {
	var b Breakdown
	if analysis == nil || candidate == nil {
		return b
	}

	subjects := toSet(candidate.SubjectCodes)
	codes := candidate.Codes()
	v := candidate.Visual

	shared := sharedObjects(analysis, v)
	b.SharedObjects = shared

	if v != nil {
		b.Concrete = concreteScore(analysis, v, len(shared))
		b.Bonus = specificityBonus(analysis, v, len(shared))
		b.Penalty = conflictPenaltyFor(analysis, v)
	}
	if intersects(subjects, ThemeCodesFor(analysis.Themes)) {
		b.Theme = 1
	}
	b.Emotion = emotionScore(analysis, codes)
	b.Genre = genreScore(analysis.EmotionalTone, candidate.GenreCodes)

	w := s.weights
	b.Weighted = w.Concrete*b.Concrete + w.Theme*b.Theme + w.Emotion*b.Emotion + w.Genre*b.Genre

	b.VisualThematic = clamp01(b.Weighted + b.Bonus - b.Penalty)
	if hasAvoidConflict(analysis.AvoidSubjects, codes) {
		b.AvoidConflict = true
		b.VisualThematic = ApplyAvoidPenalty(b.VisualThematic)
	}

	b.Final = b.VisualThematic
	if era, ok := EraScore(poetBirth, poetDeath, candidate.Year); ok {
		b.Era = era
		b.EraKnown = true
		b.Final = b.VisualThematic*visualThematicShare + era*eraShare
	}
	b.Final = clamp01(b.Final)
	return b
}

// ApplyAvoidPenalty halves a pre-era score for a candidate showing an avoided subject.
func ApplyAvoidPenalty(score float64) float64 {
	return score * avoidMultiplier
}

func concreteScore(a *domain.PoemAnalysis, v *domain.VisualAttributes, shared int) float64 {
	raw := math.Min(float64(shared)/concreteSharedTarget, 1) * concreteSharedWorth
	if explicitMatch(a.Narrative.Setting, v.Setting) {
		raw += concreteSettingWorth
	}
	if comp, ok := SpatialComposition[a.SpatialQualities]; ok && comp == v.Composition {
		raw += concreteSpatialWorth
	}
	if explicitMatch(a.Narrative.TimeOfDay, v.TimeOfDay) {
		raw += concreteTimeWorth
	}
	if explicitMatch(a.Narrative.Season, v.Season) {
		raw += concreteSeasonWorth
	}
	return math.Min(raw/concreteMax, 1)
}

func specificityBonus(a *domain.PoemAnalysis, v *domain.VisualAttributes, shared int) float64 {
	bonus := math.Min(float64(shared)*bonusPerSharedObject, specificityCap)
	if explicitMatch(a.Narrative.Setting, v.Setting) {
		bonus += bonusSetting
	}
	if explicitMatch(a.Narrative.TimeOfDay, v.TimeOfDay) {
		bonus += bonusTime
	}
	if a.Narrative.Season != timelessSeason && explicitMatch(a.Narrative.Season, v.Season) {
		bonus += bonusSeason
	}
	if overlaps(a.ColorReferences, v.DominantColors) {
		bonus += bonusColor
	}
	return math.Min(bonus, specificityCap)
}

func conflictPenaltyFor(a *domain.PoemAnalysis, v *domain.VisualAttributes) float64 {
	penalty := 0.0
	for _, pair := range [][2]string{
		{a.Narrative.Setting, v.Setting},
		{a.Narrative.TimeOfDay, v.TimeOfDay},
	} {
		if !domain.IsExplicit(pair[0]) || !domain.IsExplicit(pair[1]) {
			continue
		}
		for _, opp := range opposingPairs {
			if (pair[0] == opp[0] && pair[1] == opp[1]) || (pair[0] == opp[1] && pair[1] == opp[0]) {
				penalty += conflictPenalty
			}
		}
	}
	return penalty
}

// emotionScore credits each declared emotion tier whose codes appear among the
// candidate's subject or genre codes, normalized by the worth of the declared
// tiers.
func emotionScore(a *domain.PoemAnalysis, codes map[string]struct{}) float64 {
	declared, matched := 0.0, 0.0
	if len(a.PrimaryEmotions) > 0 {
		declared += primaryEmotionWorth
		if intersects(codes, EmotionCodesFor(a.PrimaryEmotions)) {
			matched += primaryEmotionWorth
		}
	}
	if len(a.SecondaryEmotions) > 0 {
		declared += secondaryEmotionWorth
		if intersects(codes, EmotionCodesFor(a.SecondaryEmotions)) {
			matched += secondaryEmotionWorth
		}
	}
	if declared == 0 {
		return 0
	}
	return matched / declared
}

func genreScore(tone string, genres []string) float64 {
	if len(genres) == 0 {
		return 0
	}
	if intersects(toSet(genres), ToneGenres[tone]) {
		return 1
	}
	return genrePartialCredit
}

// hasAvoidConflict resolves avoided subjects through the theme and emotion
// tables, or as literal codes, and checks them against the candidate.
func hasAvoidConflict(avoid []string, codes map[string]struct{}) bool {
	for _, subject := range avoid {
		subject = strings.ToLower(strings.TrimSpace(subject))
		if codePattern.MatchString(subject) {
			if _, ok := codes[strings.ToUpper(subject)]; ok {
				return true
			}
			continue
		}
		if intersects(codes, ThemeCodes[subject]) || intersects(codes, EmotionCodes[subject]) {
			return true
		}
	}
	return false
}

func sharedObjects(a *domain.PoemAnalysis, v *domain.VisualAttributes) []string {
	if v == nil {
		return nil
	}
	detected := make(map[string]struct{}, len(v.DetectedObjects))
	for _, obj := range v.DetectedObjects {
		detected[strings.ToLower(obj)] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, noun := range a.ConcreteElements.Nouns() {
		noun = strings.ToLower(noun)
		if _, ok := detected[noun]; !ok {
			continue
		}
		if _, dup := seen[noun]; dup {
			continue
		}
		seen[noun] = struct{}{}
		out = append(out, noun)
	}
	return out
}

func explicitMatch(poem, visual string) bool {
	return domain.IsExplicit(poem) && poem == visual
}

func overlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range a {
		if _, ok := set[strings.ToLower(s)]; ok {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[s] = struct{}{}
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
