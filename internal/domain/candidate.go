package domain

import "strings"

// VisualAttributes is what an image-understanding pass extracted from an artwork.
type VisualAttributes struct {
	DetectedObjects []string `json:"detected_objects"`
	DominantColors  []string `json:"dominant_colors"`
	Setting         string   `json:"setting"`
	TimeOfDay       string   `json:"time_of_day"`
	Season          string   `json:"season"`
	HumanPresence   string   `json:"human_presence"`
	Composition     string   `json:"composition"`
	Mood            string   `json:"mood"`
}

// Normalize lowercases every label in place.
func (v *VisualAttributes) Normalize() {
	if v == nil {
		return
	}
	v.DetectedObjects = dedupe(v.DetectedObjects)
	v.DominantColors = dedupe(v.DominantColors)
	v.Setting = label(v.Setting)
	v.TimeOfDay = label(v.TimeOfDay)
	v.Season = label(v.Season)
	v.HumanPresence = label(v.HumanPresence)
	v.Composition = label(v.Composition)
	v.Mood = label(v.Mood)
}

// visualObjectCodes maps detected object labels to subject codes.
var visualObjectCodes = map[string]string{
	"tree": "Q10884", "trees": "Q10884",
	"flower": "Q11427", "flowers": "Q11427", "rose": "Q11427", "roses": "Q11427",
	"ocean": "Q9430", "sea": "Q9430", "water": "Q9430",
	"mountain": "Q8502", "mountains": "Q8502",
	"house": "Q3947", "houses": "Q3947", "building": "Q3947", "buildings": "Q3947",
	"ship": "Q11446", "ships": "Q11446", "boat": "Q11446", "boats": "Q11446",
	"bird": "Q5113", "birds": "Q5113",
	"horse": "Q726", "horses": "Q726",
	"dog": "Q144", "dogs": "Q144",
	"cat": "Q146", "cats": "Q146",
}

var settingCodes = map[string]string{
	"seascape":  "Q16970",
	"landscape": "Q191163",
	"portrait":  "Q134307",
}

var timeCodes = map[string]string{
	"night": "Q183",
	"day":   "Q111",
}

// Codes maps the detected objects, setting and time of day to subject codes.
// Labels without a known code are ignored.
func (v *VisualAttributes) Codes() []string {
	if v == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(code string) {
		if code == "" {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	for _, obj := range v.DetectedObjects {
		add(visualObjectCodes[strings.ToLower(obj)])
	}
	add(settingCodes[strings.ToLower(v.Setting)])
	add(timeCodes[strings.ToLower(v.TimeOfDay)])
	return out
}

// Candidate is an artwork under consideration for a poem.
type Candidate struct {
	ID           string            `json:"id"`
	Title        string            `json:"title,omitempty"`
	Artist       string            `json:"artist,omitempty"`
	ArtworkType  string            `json:"artwork_type,omitempty"`
	SubjectCodes []string          `json:"subject_codes"`
	GenreCodes   []string          `json:"genre_codes"`
	Year         *int              `json:"year,omitempty"`
	ImageURL     string            `json:"image_url,omitempty"`
	Popularity   int               `json:"popularity"`
	Visual       *VisualAttributes `json:"visual,omitempty"`

	DepictedSubjects []string `json:"depicted_subjects,omitempty"`
	Style            string   `json:"style,omitempty"`
	Medium           string   `json:"medium,omitempty"`
	Dimensions       string   `json:"dimensions,omitempty"`
}

// HasImage reports whether the candidate has an image reference.
func (c *Candidate) HasImage() bool {
	return strings.TrimSpace(c.ImageURL) != ""
}

// Codes returns the union of subject and genre codes.
func (c *Candidate) Codes() map[string]struct{} {
	out := make(map[string]struct{}, len(c.SubjectCodes)+len(c.GenreCodes))
	for _, code := range c.SubjectCodes {
		out[code] = struct{}{}
	}
	for _, code := range c.GenreCodes {
		out[code] = struct{}{}
	}
	return out
}

// WithVisual returns a shallow copy carrying the given attributes.
func (c Candidate) WithVisual(v *VisualAttributes) Candidate {
	c.Visual = v
	return c
}

// ScoredMatch is a candidate together with its score.
type ScoredMatch struct {
	Candidate   Candidate    `json:"candidate"`
	Score       float64      `json:"score"`
	Enriched    bool         `json:"enriched"`
	Explanation *Explanation `json:"explanation,omitempty"`
}

// Explanation is a human-readable account of why a match was chosen.
type Explanation struct {
	Score           float64  `json:"score"`
	Assessment      string   `json:"assessment"`
	Connections     []string `json:"connections"`
	ConcreteMatches []string `json:"concrete_matches"`
	Tensions        []string `json:"tensions"`
	Summary         string   `json:"summary"`
}
