package matcher

import (
	"fmt"
	"strings"

	"github.com/timmy/artmatch/internal/domain"
)

const maxConnections = 5

var themePhrases = map[string]string{
	"nature":  "Both feature natural elements and landscapes",
	"flowers": "Both involve floral imagery and botanical themes",
	"water":   "Both depict water scenes, oceans, or aquatic elements",
	"love":    "Both explore themes of love, romance, and affection",
	"death":   "Both address themes of mortality, loss, and remembrance",
	"war":     "Both depict conflict, battle, or military themes",
	"night":   "Both feature nocturnal scenes and darkness",
	"day":     "Both depict daylight scenes and brightness",
	"city":    "Both feature urban settings and city life",
	"animals": "Both include animal imagery and wildlife",
	"seasons": "Both reflect seasonal changes and temporal themes",
}

var emotionPhrases = map[string]string{
	"melancholy": "Both convey a sense of melancholy and introspection",
	"joy":        "Both express joy, celebration, and positive emotions",
	"peace":      "Both evoke feelings of peace, tranquility, and serenity",
	"love":       "Both explore themes of love, passion, and emotional connection",
	"hope":       "Both convey hope, optimism, and forward-looking themes",
	"despair":    "Both express despair, hopelessness, and emotional darkness",
	"nostalgia":  "Both evoke nostalgia, memory, and longing for the past",
	"grief":      "Both address grief, loss, and mourning",
}

var settingPhrases = map[string]string{
	"indoor":    "Both are set in indoor, interior spaces",
	"outdoor":   "Both feature outdoor, exterior settings",
	"urban":     "Both depict urban environments and cityscapes",
	"rural":     "Both show rural, countryside settings",
	"seascape":  "Both feature ocean, sea, or coastal scenes",
	"celestial": "Both include sky, celestial, or heavenly imagery",
}

var timePhrases = map[string]string{
	"dawn":  "Both depict dawn, sunrise, or early morning scenes",
	"day":   "Both show daylight, bright, or sunny scenes",
	"dusk":  "Both feature dusk, sunset, or twilight moments",
	"night": "Both depict night, darkness, or nocturnal scenes",
}

var compositionPhrases = map[string]string{
	"intimate":  "Both have intimate, close-up compositions",
	"expansive": "Both feature expansive, wide compositions",
	"chaotic":   "Both have dynamic, chaotic compositions",
	"ordered":   "Both show ordered, structured compositions",
}

var moodContrasts = map[[2]string]string{
	{"light", "dark"}:       "Mood contrast: poem is light, artwork is dark",
	{"dark", "light"}:       "Mood contrast: poem is dark, artwork is light",
	{"serene", "turbulent"}: "Mood contrast: poem is serene, artwork is turbulent",
	{"turbulent", "serene"}: "Mood contrast: poem is turbulent, artwork is serene",
}

// Assessment returns the qualitative band for a score.
func Assessment(score float64) string {
	switch {
	case score >= 0.8:
		return "excellent"
	case score >= 0.6:
		return "strong"
	case score >= 0.4:
		return "moderate"
	case score >= 0.2:
		return "weak"
	default:
		return "poor"
	}
}

// Explainer turns a scored match into a human-readable rationale.
type Explainer struct{}

// NewExplainer creates an Explainer.
func NewExplainer() *Explainer {
	return &Explainer{}
}

// Explain describes why candidate was matched to analysis.
// Connections are only claimed when the candidate carries the matching codes
// or visual attributes.
func (e *Explainer) Explain(analysis *domain.PoemAnalysis, candidate *domain.Candidate, score float64) *domain.Explanation {
	ex := &domain.Explanation{
		Score:      score,
		Assessment: Assessment(score),
	}
	if analysis == nil || candidate == nil {
		ex.Summary = summary(score, nil, nil)
		return ex
	}

	codes := candidate.Codes()
	for _, c := range candidate.Visual.Codes() {
		codes[c] = struct{}{}
	}
	v := candidate.Visual

	ex.Connections = connections(analysis, codes, v)
	ex.ConcreteMatches = concreteMatches(analysis, codes, v)
	ex.Tensions = tensions(analysis, v)
	ex.Summary = summary(score, ex.Connections, sharedObjects(analysis, v))
	return ex
}

func connections(a *domain.PoemAnalysis, codes map[string]struct{}, v *domain.VisualAttributes) []string {
	var out []string
	for _, theme := range a.Themes {
		if phrase, ok := themePhrases[theme]; ok && intersects(codes, ThemeCodes[theme]) {
			out = appendUnique(out, phrase)
		}
	}
	for _, emotion := range a.Emotions() {
		if phrase, ok := emotionPhrases[emotion]; ok && intersects(codes, EmotionCodes[emotion]) {
			out = appendUnique(out, phrase)
		}
	}

	if v != nil {
		if explicitMatch(a.Narrative.Setting, v.Setting) {
			phrase, ok := settingPhrases[v.Setting]
			if !ok {
				phrase = fmt.Sprintf("Both are set in %s environments", v.Setting)
			}
			out = appendUnique(out, phrase)
		}
		if explicitMatch(a.Narrative.TimeOfDay, v.TimeOfDay) {
			phrase, ok := timePhrases[v.TimeOfDay]
			if !ok {
				phrase = fmt.Sprintf("Both are set during %s", v.TimeOfDay)
			}
			out = appendUnique(out, phrase)
		}
		if colors := common(a.ColorReferences, v.DominantColors); len(colors) > 0 {
			out = appendUnique(out, "Both feature similar color palettes: "+strings.Join(colors, ", "))
		}
		if a.Mood != "" && a.Mood == v.Mood {
			out = appendUnique(out, fmt.Sprintf("Both convey a %s mood and atmosphere", a.Mood))
		}
		if comp, ok := SpatialComposition[a.SpatialQualities]; ok && comp == v.Composition {
			out = appendUnique(out, compositionPhrases[comp])
		}
	}

	if len(out) > maxConnections {
		out = out[:maxConnections]
	}
	return out
}

func concreteMatches(a *domain.PoemAnalysis, codes map[string]struct{}, v *domain.VisualAttributes) []string {
	var out []string
	if shared := sharedObjects(a, v); len(shared) > 0 {
		out = append(out, "Shared objects: "+strings.Join(shared, ", "))
	}
	if v != nil {
		if explicitMatch(a.Narrative.Setting, v.Setting) {
			out = append(out, fmt.Sprintf("Both feature %s settings", v.Setting))
		}
		if explicitMatch(a.Narrative.TimeOfDay, v.TimeOfDay) {
			out = append(out, fmt.Sprintf("Both are set during %s", v.TimeOfDay))
		}
	}

	var resonant []string
	for _, emotion := range a.PrimaryEmotions {
		if intersects(codes, EmotionCodes[emotion]) {
			resonant = append(resonant, emotion)
		}
		if len(resonant) == 2 {
			break
		}
	}
	if len(resonant) > 0 {
		out = append(out, fmt.Sprintf("Both convey %s emotions", strings.Join(resonant, ", ")))
	}
	return out
}

func tensions(a *domain.PoemAnalysis, v *domain.VisualAttributes) []string {
	if v == nil {
		return nil
	}
	var out []string
	if domain.IsExplicit(a.Narrative.Setting) && domain.IsExplicit(v.Setting) && a.Narrative.Setting != v.Setting {
		out = append(out, fmt.Sprintf("Setting mismatch: poem is %s, artwork is %s", a.Narrative.Setting, v.Setting))
	}
	if domain.IsExplicit(a.Narrative.TimeOfDay) && domain.IsExplicit(v.TimeOfDay) && a.Narrative.TimeOfDay != v.TimeOfDay {
		out = append(out, fmt.Sprintf("Time mismatch: poem is %s, artwork is %s", a.Narrative.TimeOfDay, v.TimeOfDay))
	}
	if msg, ok := moodContrasts[[2]string{a.Mood, v.Mood}]; ok {
		out = append(out, msg)
	}
	return out
}

func summary(score float64, connections, shared []string) string {
	strength := Assessment(score)
	if strength == "poor" {
		strength = "weak"
	}
	switch {
	case len(connections) > 0:
		return fmt.Sprintf("This is a %s match because %s", strength, strings.ToLower(connections[0]))
	case len(shared) > 0:
		if len(shared) > 2 {
			shared = shared[:2]
		}
		return fmt.Sprintf("This is a %s match featuring shared elements: %s", strength, strings.Join(shared, ", "))
	default:
		return fmt.Sprintf("This is a %s match based on thematic and emotional alignment", strength)
	}
}

func common(a, b []string) []string {
	set := toSet(b)
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = appendUnique(out, s)
		}
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
