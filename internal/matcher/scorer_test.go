package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/artmatch/internal/domain"
)

func intPtr(v int) *int { return &v }

func newAnalysis() *domain.PoemAnalysis {
	a := &domain.PoemAnalysis{}
	a.Normalize()
	return a
}

func TestEraScore(t *testing.T) {
	tests := []struct {
		name   string
		birth  *int
		death  *int
		year   *int
		want   float64
		wantOK bool
	}{
		{"inside lifetime", intPtr(1800), intPtr(1850), intPtr(1825), 1.0, true},
		{"buffer boundary before", intPtr(1800), intPtr(1850), intPtr(1750), 0.5, true},
		{"halfway into buffer after", intPtr(1800), intPtr(1850), intPtr(1875), 0.75, true},
		{"beyond buffer", intPtr(1800), intPtr(1850), intPtr(1600), 0.0, true},
		{"unknown birth", nil, intPtr(1850), intPtr(1800), 0, false},
		{"unknown year", intPtr(1800), intPtr(1850), nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EraScore(tt.birth, tt.death, tt.year)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScorePrimaryEmotionOnly(t *testing.T) {
	a := newAnalysis()
	a.PrimaryEmotions = []string{"grief"}
	c := &domain.Candidate{ID: "Q1", SubjectCodes: []string{"Q4", "Q203", "Q2912397"}}

	got := NewScorer(DefaultWeights()).Score(a, c, nil, nil)
	assert.GreaterOrEqual(t, got, 0.25)
	assert.Less(t, got, 0.30)
}

func TestScoreEmotionMatchesGenreCodes(t *testing.T) {
	a := newAnalysis()
	a.PrimaryEmotions = []string{"grief"}
	c := &domain.Candidate{ID: "Q1", GenreCodes: []string{"Q4"}}

	b := NewScorer(DefaultWeights()).Breakdown(a, c, nil, nil)
	assert.Equal(t, 1.0, b.Emotion)
	assert.Equal(t, 0.0, b.Theme)
	assert.InDelta(t, 0.30, b.Final, 1e-9)
}

func TestScoreThemeAndGenre(t *testing.T) {
	a := newAnalysis()
	a.Themes = []string{"nature"}
	a.EmotionalTone = "contemplative"

	s := NewScorer(DefaultWeights())

	full := s.Breakdown(a, &domain.Candidate{SubjectCodes: []string{"Q7860"}, GenreCodes: []string{"Q191163"}}, nil, nil)
	assert.Equal(t, 1.0, full.Theme)
	assert.Equal(t, 1.0, full.Genre)
	assert.InDelta(t, 0.40, full.Final, 1e-9)

	partial := s.Breakdown(a, &domain.Candidate{SubjectCodes: []string{"Q1"}, GenreCodes: []string{"Q999"}}, nil, nil)
	assert.Equal(t, 0.0, partial.Theme)
	assert.Equal(t, 0.5, partial.Genre)
	assert.InDelta(t, 0.05, partial.Final, 1e-9)
}

func TestScoreWithVisual(t *testing.T) {
	a := newAnalysis()
	a.ConcreteElements.NaturalObjects = []string{"tree", "moon"}
	a.Narrative.Setting = "outdoor"
	a.Narrative.TimeOfDay = "night"
	a.SpatialQualities = "open"

	c := &domain.Candidate{Visual: &domain.VisualAttributes{
		DetectedObjects: []string{"Tree", "moon", "river"},
		Setting:         "outdoor",
		TimeOfDay:       "night",
		Composition:     "expansive",
	}}

	b := NewScorer(DefaultWeights()).Breakdown(a, c, nil, nil)
	// raw = 2/5*0.20 + 0.10 + 0.05 + 0.05 = 0.28
	assert.InDelta(t, 0.28/0.35, b.Concrete, 1e-9)
	assert.Equal(t, []string{"tree", "moon"}, b.SharedObjects)
	assert.InDelta(t, specificityCap, b.Bonus, 1e-9)
	assert.Zero(t, b.Penalty)
	assert.InDelta(t, 0.35*0.28/0.35+0.20, b.Final, 1e-9)
}

func TestScoreConflictPenalty(t *testing.T) {
	a := newAnalysis()
	a.Themes = []string{"nature"}
	a.Narrative.Setting = "indoor"
	a.Narrative.TimeOfDay = "day"

	c := &domain.Candidate{
		SubjectCodes: []string{"Q7860"},
		Visual:       &domain.VisualAttributes{Setting: "outdoor", TimeOfDay: "night"},
	}
	b := NewScorer(DefaultWeights()).Breakdown(a, c, nil, nil)
	assert.InDelta(t, 0.6, b.Penalty, 1e-9)
	assert.Equal(t, 0.0, b.Final)
}

func TestAvoidSubjectHalvesPreEraScore(t *testing.T) {
	assert.InDelta(t, 0.4, ApplyAvoidPenalty(0.8), 1e-12)

	a := newAnalysis()
	a.Themes = []string{"nature"}
	a.AvoidSubjects = []string{"war"}
	s := NewScorer(DefaultWeights())

	clean := s.Breakdown(a, &domain.Candidate{SubjectCodes: []string{"Q7860"}}, nil, nil)
	conflicted := s.Breakdown(a, &domain.Candidate{SubjectCodes: []string{"Q7860", "Q198"}}, nil, nil)
	require.True(t, conflicted.AvoidConflict)
	assert.InDelta(t, clean.VisualThematic/2, conflicted.VisualThematic, 1e-12)

	a.AvoidSubjects = []string{"q42"}
	literal := s.Breakdown(a, &domain.Candidate{SubjectCodes: []string{"Q7860", "Q42"}}, nil, nil)
	assert.True(t, literal.AvoidConflict)
}

func TestScoreBlendsEra(t *testing.T) {
	a := newAnalysis()
	a.Themes = []string{"nature"}
	c := &domain.Candidate{SubjectCodes: []string{"Q7860"}, Year: intPtr(1820)}

	b := NewScorer(DefaultWeights()).Breakdown(a, c, intPtr(1800), intPtr(1850))
	require.True(t, b.EraKnown)
	assert.InDelta(t, 0.30*0.8+0.2, b.Final, 1e-9)
}

func TestScoreIsBoundedAndDeterministic(t *testing.T) {
	a := newAnalysis()
	a.PrimaryEmotions = []string{"joy", "hope"}
	a.SecondaryEmotions = []string{"love"}
	a.Themes = []string{"nature", "flowers", "day"}
	a.EmotionalTone = "celebratory"
	a.ConcreteElements.NaturalObjects = []string{"flower", "sun", "tree", "sky", "river", "field"}
	a.Narrative.Setting = "outdoor"
	a.Narrative.TimeOfDay = "day"
	a.Narrative.Season = "spring"
	a.ColorReferences = []string{"gold"}

	c := &domain.Candidate{
		SubjectCodes: []string{"Q7860", "Q506", "Q111", "Q316", "Q2385804"},
		GenreCodes:   []string{"Q16875712"},
		Visual: &domain.VisualAttributes{
			DetectedObjects: []string{"flower", "sun", "tree", "sky", "river", "field"},
			DominantColors:  []string{"gold"},
			Setting:         "outdoor",
			TimeOfDay:       "day",
			Season:          "spring",
		},
	}

	s := NewScorer(DefaultWeights())
	first := s.Score(a, c, nil, nil)
	assert.Equal(t, 1.0, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(a, c, nil, nil))
	}
	assert.Zero(t, s.Score(nil, c, nil, nil))
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
	assert.Error(t, Weights{Concrete: 0.5, Theme: 0.5, Emotion: 0.5}.Validate())
	assert.Error(t, Weights{Concrete: -0.1, Theme: 0.6, Emotion: 0.4, Genre: 0.1}.Validate())

	s := NewScorer(Weights{})
	assert.Equal(t, DefaultWeights(), s.Weights())
}
