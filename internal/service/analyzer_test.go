package service

import (
	"testing"

	"github.com/timmy/artmatch/internal/domain"
)

func TestKeywordAnalyzerSeaPoem(t *testing.T) {
	text := `The calm sea at dusk; a boat drifts on quiet waves.
Calm water under the moon.`
	a := NewKeywordAnalyzer().Analyze(" Evening Harbour ", "Anon", text)

	if a.Title != "Evening Harbour" || a.Poet != "Anon" {
		t.Errorf("title/poet = %q/%q", a.Title, a.Poet)
	}
	if !sameIDs(a.Themes, "water", "night") {
		t.Errorf("themes = %v", a.Themes)
	}
	if !sameIDs(a.PrimaryEmotions, "peace") || len(a.SecondaryEmotions) != 0 {
		t.Errorf("emotions = %v / %v", a.PrimaryEmotions, a.SecondaryEmotions)
	}
	if a.EmotionalTone != "contemplative" || a.Mood != "peace" {
		t.Errorf("tone = %q, mood = %q", a.EmotionalTone, a.Mood)
	}
	if a.Intensity != 6 {
		t.Errorf("intensity = %d, want 6", a.Intensity)
	}
	if !sameIDs(a.ConcreteElements.NaturalObjects, "sea", "water", "moon") {
		t.Errorf("natural objects = %v", a.ConcreteElements.NaturalObjects)
	}
	if !sameIDs(a.ConcreteElements.ManMadeObjects, "boat") {
		t.Errorf("man-made objects = %v", a.ConcreteElements.ManMadeObjects)
	}
	if a.Narrative.Setting != "seascape" || a.Narrative.TimeOfDay != "dusk" {
		t.Errorf("narrative = %+v", a.Narrative)
	}
	if a.Narrative.Season != domain.Ambiguous {
		t.Errorf("season = %q, want ambiguous", a.Narrative.Season)
	}
}

func TestKeywordAnalyzerEmptyText(t *testing.T) {
	a := NewKeywordAnalyzer().Analyze("", "", "")

	if len(a.Themes) != 0 || len(a.Emotions()) != 0 {
		t.Errorf("themes = %v, emotions = %v", a.Themes, a.Emotions())
	}
	if a.EmotionalTone != "contemplative" || a.Intensity != 3 {
		t.Errorf("tone = %q, intensity = %d", a.EmotionalTone, a.Intensity)
	}
	if a.Narrative.Setting != domain.Ambiguous {
		t.Errorf("setting = %q", a.Narrative.Setting)
	}
}

func TestKeywordAnalyzerWholeWords(t *testing.T) {
	// "seaside" and "boathouse" must not match "sea" or "boat".
	a := NewKeywordAnalyzer().Analyze("", "", "A seaside boathouse")
	if len(a.Themes) != 0 {
		t.Errorf("themes = %v, want none", a.Themes)
	}
}

func TestKeywordAnalyzerCapsThemesAndSplitsEmotions(t *testing.T) {
	text := "war battle sea river night moon love heart city street " +
		"grief sorrow sorrow joy happy calm"
	a := NewKeywordAnalyzer().Analyze("", "", text)

	if len(a.Themes) != 3 {
		t.Errorf("themes = %v, want 3", a.Themes)
	}
	if !sameIDs(a.PrimaryEmotions, "grief", "joy") || !sameIDs(a.SecondaryEmotions, "love", "peace") {
		t.Errorf("emotions = %v / %v", a.PrimaryEmotions, a.SecondaryEmotions)
	}
	if a.EmotionalTone != "serious" {
		t.Errorf("tone = %q", a.EmotionalTone)
	}
	if a.Intensity != 10 {
		t.Errorf("intensity = %d, want capped 10", a.Intensity)
	}
}
