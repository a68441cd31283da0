package matcher

// ThemeCodes maps poem theme labels to the subject codes that depict them.
var ThemeCodes = map[string][]string{
	"nature":    {"Q7860", "Q23397", "Q1640824"},
	"flowers":   {"Q506", "Q1640824", "Q16538"},
	"water":     {"Q283", "Q16970", "Q131681", "Q18811"},
	"love":      {"Q316", "Q16538", "Q506"},
	"death":     {"Q4", "Q198", "Q18811"},
	"war":       {"Q198", "Q18811", "Q4"},
	"night":     {"Q183", "Q111", "Q12133"},
	"day":       {"Q111", "Q525", "Q12133"},
	"city":      {"Q515", "Q395", "Q18811"},
	"animals":   {"Q729", "Q5113", "Q1640824"},
	"seasons":   {"Q395", "Q12133", "Q23397"},
	"landscape": {"Q191163"},
	"darkness":  {"Q183"},
	"ocean":     {"Q16970"},
}

// EmotionCodes maps emotion labels to subject codes that evoke them.
var EmotionCodes = map[string][]string{
	"grief":      {"Q4", "Q203", "Q2912397"},
	"melancholy": {"Q183", "Q8886", "Q35127"},
	"joy":        {"Q2385804", "Q8274", "Q1068639"},
	"peace":      {"Q23397", "Q35127", "Q483130"},
	"love":       {"Q316", "Q16538", "Q506"},
	"hope":       {"Q111", "Q525", "Q12133"},
	"despair":    {"Q183", "Q4", "Q8886"},
	"nostalgia":  {"Q23397", "Q35127", "Q395"},
}

// ToneGenres maps an emotional tone to the genre codes that suit it.
var ToneGenres = map[string][]string{
	"playful":       {"Q16875712", "Q1640824"},
	"serious":       {"Q134307", "Q2839016"},
	"melancholic":   {"Q191163", "Q40446"},
	"celebratory":   {"Q16875712", "Q1640824"},
	"contemplative": {"Q191163", "Q134307"},
	"ironic":        {"Q16875712", "Q134307"},
}

// ToneExclusions lists the codes a candidate must not carry for a given tone.
var ToneExclusions = map[string][]string{
	// war, battle, violence
	"peaceful": {"Q198", "Q18811", "Q124490"},
	"serene":   {"Q198", "Q18811", "Q124490"},
	// death, mourning, memorial
	"joyful":      {"Q4", "Q203", "Q2912397"},
	"celebratory": {"Q4", "Q203", "Q2912397"},
	// vast landscape
	"intimate": {"Q191163"},
	// darkness
	"bright": {"Q183", "Q111"},
	"light":  {"Q183", "Q111"},
}

// SpatialComposition maps a poem's spatial quality to the matching composition.
var SpatialComposition = map[string]string{
	"enclosed":  "intimate",
	"open":      "expansive",
	"centered":  "ordered",
	"dispersed": "chaotic",
}

// opposingPairs are explicit narrative contradictions penalized by the scorer.
var opposingPairs = [][2]string{
	{"indoor", "outdoor"},
	{"urban", "rural"},
	{"day", "night"},
}

// incompatibleTimes are time-of-day pairs that reject a candidate outright.
var incompatibleTimes = map[[2]string]bool{
	{"dawn", "night"}: true,
	{"night", "dawn"}: true,
}

// CodesForLabels resolves labels through a table into a set of codes.
func CodesForLabels(table map[string][]string, labels []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, l := range labels {
		for _, code := range table[l] {
			out[code] = struct{}{}
		}
	}
	return out
}

// ThemeCodesFor returns the ordered, de-duplicated subject codes for themes.
func ThemeCodesFor(themes []string) []string {
	return orderedCodes(ThemeCodes, themes)
}

// EmotionCodesFor returns the ordered, de-duplicated subject codes for emotions.
func EmotionCodesFor(emotions []string) []string {
	return orderedCodes(EmotionCodes, emotions)
}

// GenreCodesFor returns the genre codes suited to a tone.
func GenreCodesFor(tone string) []string {
	return append([]string(nil), ToneGenres[tone]...)
}

func orderedCodes(table map[string][]string, labels []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range labels {
		for _, code := range table[l] {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out
}

func intersects(set map[string]struct{}, codes []string) bool {
	for _, c := range codes {
		if _, ok := set[c]; ok {
			return true
		}
	}
	return false
}
