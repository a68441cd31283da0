package service

import (
	"sort"
	"strings"
	"unicode"

	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/prompts"
)

const (
	maxKeywordThemes   = 3
	maxPrimaryEmotions = 2
)

var manMadeWords = map[string]bool{
	"house": true, "houses": true, "building": true, "ship": true, "ships": true,
	"boat": true, "boats": true, "window": true, "church": true, "bridge": true,
}

var livingWords = map[string]bool{
	"bird": true, "birds": true, "horse": true, "horses": true,
	"dog": true, "dogs": true, "cat": true, "cats": true,
}

// KeywordAnalyzer builds a PoemAnalysis from poem text by whole-word lexicon
// matching. It is the offline stand-in for a language-model analysis.
type KeywordAnalyzer struct{}

// NewKeywordAnalyzer creates a keyword analyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

// Analyze reads title and text and returns a normalized analysis.
// Labels with no keyword hits stay empty or ambiguous.
func (k *KeywordAnalyzer) Analyze(title, poet, text string) *domain.PoemAnalysis {
	words := tokenize(title + "\n" + text)
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}

	a := &domain.PoemAnalysis{
		Title: strings.TrimSpace(title),
		Poet:  strings.TrimSpace(poet),
	}

	themes := rankLabels(prompts.ThemeKeywords, counts)
	if len(themes) > maxKeywordThemes {
		themes = themes[:maxKeywordThemes]
	}
	a.Themes = themes

	emotions := rankLabels(prompts.EmotionKeywords, counts)
	if len(emotions) > maxPrimaryEmotions {
		a.PrimaryEmotions = emotions[:maxPrimaryEmotions]
		a.SecondaryEmotions = emotions[maxPrimaryEmotions:]
	} else {
		a.PrimaryEmotions = emotions
	}
	if len(emotions) > 0 {
		a.EmotionalTone = prompts.ToneByEmotion[emotions[0]]
		a.Mood = emotions[0]
	} else {
		a.EmotionalTone = "contemplative"
	}

	hits := 0
	for _, label := range emotions {
		hits += labelHits(prompts.EmotionKeywords[label], counts)
	}
	a.Intensity = 3 + hits
	if a.Intensity > 10 {
		a.Intensity = 10
	}

	for _, obj := range prompts.ObjectKeywords {
		if counts[obj] == 0 {
			continue
		}
		switch {
		case manMadeWords[obj]:
			a.ConcreteElements.ManMadeObjects = append(a.ConcreteElements.ManMadeObjects, obj)
		case livingWords[obj]:
			a.ConcreteElements.LivingBeings = append(a.ConcreteElements.LivingBeings, obj)
		default:
			a.ConcreteElements.NaturalObjects = append(a.ConcreteElements.NaturalObjects, obj)
		}
	}

	a.Narrative.Setting = topLabel(prompts.SettingKeywords, counts)
	a.Narrative.TimeOfDay = topLabel(prompts.TimeKeywords, counts)
	a.Narrative.Season = topLabel(prompts.SeasonKeywords, counts)

	for _, c := range prompts.ColorWords {
		if counts[c] > 0 {
			a.ColorReferences = append(a.ColorReferences, c)
		}
	}

	a.Normalize()
	return a
}

// tokenize lowercases text and splits it into words. Apostrophes inside
// words are kept so contractions do not match their stems.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func labelHits(keywords []string, counts map[string]int) int {
	n := 0
	for _, kw := range keywords {
		n += counts[kw]
	}
	return n
}

// rankLabels returns the labels with at least one hit, most hits first and
// ties broken by name.
func rankLabels(lexicon map[string][]string, counts map[string]int) []string {
	type scored struct {
		label string
		hits  int
	}
	var found []scored
	for label, keywords := range lexicon {
		if n := labelHits(keywords, counts); n > 0 {
			found = append(found, scored{label, n})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].hits != found[j].hits {
			return found[i].hits > found[j].hits
		}
		return found[i].label < found[j].label
	})
	out := make([]string, len(found))
	for i, s := range found {
		out[i] = s.label
	}
	return out
}

func topLabel(lexicon map[string][]string, counts map[string]int) string {
	if ranked := rankLabels(lexicon, counts); len(ranked) > 0 {
		return ranked[0]
	}
	return domain.Ambiguous
}
