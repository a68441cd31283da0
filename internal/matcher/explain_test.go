package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/artmatch/internal/domain"
)

func TestAssessmentBands(t *testing.T) {
	assert.Equal(t, "excellent", Assessment(0.8))
	assert.Equal(t, "strong", Assessment(0.6))
	assert.Equal(t, "moderate", Assessment(0.45))
	assert.Equal(t, "weak", Assessment(0.2))
	assert.Equal(t, "poor", Assessment(0.19))
}

func TestExplainClaimsOnlyCarriedConnections(t *testing.T) {
	a := newAnalysis()
	a.Themes = []string{"nature", "war"}
	a.PrimaryEmotions = []string{"grief"}

	c := &domain.Candidate{SubjectCodes: []string{"Q7860", "Q4"}}
	ex := NewExplainer().Explain(a, c, 0.65)

	require.NotNil(t, ex)
	assert.Equal(t, "strong", ex.Assessment)
	// Q4 is a war code as well, so war is claimed too.
	assert.Equal(t, []string{
		"Both feature natural elements and landscapes",
		"Both depict conflict, battle, or military themes",
		"Both address grief, loss, and mourning",
	}, ex.Connections)
	assert.Contains(t, ex.ConcreteMatches, "Both convey grief emotions")
	assert.Empty(t, ex.Tensions)
	assert.Equal(t, "This is a strong match because both feature natural elements and landscapes", ex.Summary)

	none := NewExplainer().Explain(a, &domain.Candidate{SubjectCodes: []string{"Q1"}}, 0.1)
	assert.Empty(t, none.Connections)
	assert.Equal(t, "This is a weak match based on thematic and emotional alignment", none.Summary)
}

func TestExplainVisualConnectionsAndTensions(t *testing.T) {
	a := newAnalysis()
	a.ConcreteElements.NaturalObjects = []string{"moon"}
	a.Narrative.Setting = "seascape"
	a.Narrative.TimeOfDay = "dawn"
	a.ColorReferences = []string{"blue"}
	a.Mood = "serene"

	c := &domain.Candidate{Visual: &domain.VisualAttributes{
		DetectedObjects: []string{"moon", "boat"},
		DominantColors:  []string{"blue", "grey"},
		Setting:         "seascape",
		TimeOfDay:       "dusk",
		Mood:            "turbulent",
	}}
	ex := NewExplainer().Explain(a, c, 0.5)

	assert.Contains(t, ex.Connections, "Both feature ocean, sea, or coastal scenes")
	assert.Contains(t, ex.Connections, "Both feature similar color palettes: blue")
	assert.Contains(t, ex.ConcreteMatches, "Shared objects: moon")
	assert.Contains(t, ex.ConcreteMatches, "Both feature seascape settings")
	assert.Equal(t, []string{
		"Time mismatch: poem is dawn, artwork is dusk",
		"Mood contrast: poem is serene, artwork is turbulent",
	}, ex.Tensions)
	assert.LessOrEqual(t, len(ex.Connections), maxConnections)
}
