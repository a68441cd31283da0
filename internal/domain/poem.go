package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Ambiguous marks a narrative attribute the analysis could not pin down.
const Ambiguous = "ambiguous"

// ErrMalformedAnalysis is returned when a producer emits a value that cannot
// be normalized into the PoemAnalysis schema.
var ErrMalformedAnalysis = errors.New("malformed poem analysis")

// ConcreteElements groups the concrete nouns found in a poem.
type ConcreteElements struct {
	NaturalObjects   []string `json:"natural_objects"`
	ManMadeObjects   []string `json:"man_made_objects"`
	LivingBeings     []string `json:"living_beings"`
	AbstractConcepts []string `json:"abstract_concepts"`
}

// Nouns returns the depictable nouns: natural, man-made and living.
// Abstract concepts are excluded since no image shows them directly.
func (c ConcreteElements) Nouns() []string {
	out := make([]string, 0, len(c.NaturalObjects)+len(c.ManMadeObjects)+len(c.LivingBeings))
	out = append(out, c.NaturalObjects...)
	out = append(out, c.ManMadeObjects...)
	out = append(out, c.LivingBeings...)
	return out
}

// Narrative holds the scene attributes of a poem.
// Each field is one of a small vocabulary or Ambiguous.
type Narrative struct {
	Setting       string `json:"setting"`        // indoor, outdoor, urban, rural, seascape, celestial, abstract
	TimeOfDay     string `json:"time_of_day"`    // dawn, day, dusk, night
	Season        string `json:"season"`         // spring, summer, autumn, winter, timeless
	HumanPresence string `json:"human_presence"` // central, peripheral, absent
	Weather       string `json:"weather"`
}

// Lifetime is the poet's birth and death year, either of which may be unknown.
type Lifetime struct {
	Birth *int `json:"birth,omitempty"`
	Death *int `json:"death,omitempty"`
}

// PoemAnalysis is the structured reading of a poem consumed by the matcher.
// It is read-only for the duration of a matching run.
type PoemAnalysis struct {
	Title             string           `json:"title,omitempty"`
	Poet              string           `json:"poet,omitempty"`
	PrimaryEmotions   []string         `json:"primary_emotions"`
	SecondaryEmotions []string         `json:"secondary_emotions"`
	EmotionalTone     string           `json:"emotional_tone"`
	Themes            []string         `json:"themes"`
	ConcreteElements  ConcreteElements `json:"concrete_elements"`
	Narrative         Narrative        `json:"narrative_elements"`
	Intensity         int              `json:"intensity"`
	AvoidSubjects     []string         `json:"avoid_subjects"`
	PoetLifetime      *Lifetime        `json:"poet_lifetime,omitempty"`
	ColorReferences   []string         `json:"color_references"`
	SpatialQualities  string           `json:"spatial_qualities"`
	Mood              string           `json:"mood"`
}

// Emotions returns primary followed by secondary emotions.
func (a *PoemAnalysis) Emotions() []string {
	out := make([]string, 0, len(a.PrimaryEmotions)+len(a.SecondaryEmotions))
	out = append(out, a.PrimaryEmotions...)
	return append(out, a.SecondaryEmotions...)
}

// PoetBirth returns the poet's birth year if known.
func (a *PoemAnalysis) PoetBirth() *int {
	if a.PoetLifetime == nil {
		return nil
	}
	return a.PoetLifetime.Birth
}

// PoetDeath returns the poet's death year if known.
func (a *PoemAnalysis) PoetDeath() *int {
	if a.PoetLifetime == nil {
		return nil
	}
	return a.PoetLifetime.Death
}

// IsExplicit reports whether a narrative value carries information.
func IsExplicit(v string) bool {
	return v != "" && v != Ambiguous
}

// rawAnalysis mirrors the producer schema with loosely typed label fields.
type rawAnalysis struct {
	Title             string          `json:"title"`
	Poet              string          `json:"poet"`
	PrimaryEmotions   json.RawMessage `json:"primary_emotions"`
	SecondaryEmotions json.RawMessage `json:"secondary_emotions"`
	EmotionalTone     json.RawMessage `json:"emotional_tone"`
	Themes            json.RawMessage `json:"themes"`
	ConcreteElements  struct {
		NaturalObjects   json.RawMessage `json:"natural_objects"`
		ManMadeObjects   json.RawMessage `json:"man_made_objects"`
		LivingBeings     json.RawMessage `json:"living_beings"`
		AbstractConcepts json.RawMessage `json:"abstract_concepts"`
	} `json:"concrete_elements"`
	Narrative struct {
		Setting       json.RawMessage `json:"setting"`
		TimeOfDay     json.RawMessage `json:"time_of_day"`
		Season        json.RawMessage `json:"season"`
		HumanPresence json.RawMessage `json:"human_presence"`
		Weather       json.RawMessage `json:"weather"`
	} `json:"narrative_elements"`
	Intensity        int             `json:"intensity"`
	AvoidSubjects    json.RawMessage `json:"avoid_subjects"`
	PoetLifetime     *Lifetime       `json:"poet_lifetime"`
	ColorReferences  json.RawMessage `json:"color_references"`
	SpatialQualities json.RawMessage `json:"spatial_qualities"`
	Mood             json.RawMessage `json:"mood"`
}

// ParsePoemAnalysis decodes an analysis document and normalizes it.
// List fields may arrive arbitrarily nested; they are flattened into a single
// list of lowercase labels. Scalar fields accept a single-element list.
// Anything else is rejected with ErrMalformedAnalysis.
func ParsePoemAnalysis(data []byte) (*PoemAnalysis, error) {
	var raw rawAnalysis
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}

	p := &parser{}
	a := &PoemAnalysis{
		Title:             strings.TrimSpace(raw.Title),
		Poet:              strings.TrimSpace(raw.Poet),
		PrimaryEmotions:   p.list("primary_emotions", raw.PrimaryEmotions),
		SecondaryEmotions: p.list("secondary_emotions", raw.SecondaryEmotions),
		EmotionalTone:     p.scalar("emotional_tone", raw.EmotionalTone),
		Themes:            p.list("themes", raw.Themes),
		ConcreteElements: ConcreteElements{
			NaturalObjects:   p.list("natural_objects", raw.ConcreteElements.NaturalObjects),
			ManMadeObjects:   p.list("man_made_objects", raw.ConcreteElements.ManMadeObjects),
			LivingBeings:     p.list("living_beings", raw.ConcreteElements.LivingBeings),
			AbstractConcepts: p.list("abstract_concepts", raw.ConcreteElements.AbstractConcepts),
		},
		Narrative: Narrative{
			Setting:       p.narrative("setting", raw.Narrative.Setting),
			TimeOfDay:     p.narrative("time_of_day", raw.Narrative.TimeOfDay),
			Season:        p.narrative("season", raw.Narrative.Season),
			HumanPresence: p.narrative("human_presence", raw.Narrative.HumanPresence),
			Weather:       p.narrative("weather", raw.Narrative.Weather),
		},
		Intensity:        clampIntensity(raw.Intensity),
		AvoidSubjects:    p.list("avoid_subjects", raw.AvoidSubjects),
		PoetLifetime:     raw.PoetLifetime,
		ColorReferences:  p.list("color_references", raw.ColorReferences),
		SpatialQualities: p.scalar("spatial_qualities", raw.SpatialQualities),
		Mood:             p.scalar("mood", raw.Mood),
	}
	if p.err != nil {
		return nil, p.err
	}
	return a, nil
}

// Normalize lowercases labels and fills empty narrative attributes in place.
// Used for analyses built in code rather than parsed from JSON.
func (a *PoemAnalysis) Normalize() {
	norm := func(in []string) []string {
		return dedupe(in)
	}
	a.PrimaryEmotions = norm(a.PrimaryEmotions)
	a.SecondaryEmotions = norm(a.SecondaryEmotions)
	a.Themes = norm(a.Themes)
	a.AvoidSubjects = norm(a.AvoidSubjects)
	a.ColorReferences = norm(a.ColorReferences)
	a.ConcreteElements.NaturalObjects = norm(a.ConcreteElements.NaturalObjects)
	a.ConcreteElements.ManMadeObjects = norm(a.ConcreteElements.ManMadeObjects)
	a.ConcreteElements.LivingBeings = norm(a.ConcreteElements.LivingBeings)
	a.ConcreteElements.AbstractConcepts = norm(a.ConcreteElements.AbstractConcepts)
	a.EmotionalTone = label(a.EmotionalTone)
	a.SpatialQualities = label(a.SpatialQualities)
	a.Mood = label(a.Mood)
	for _, f := range []*string{
		&a.Narrative.Setting, &a.Narrative.TimeOfDay, &a.Narrative.Season,
		&a.Narrative.HumanPresence, &a.Narrative.Weather,
	} {
		*f = label(*f)
		if *f == "" {
			*f = Ambiguous
		}
	}
	a.Intensity = clampIntensity(a.Intensity)
}

type parser struct {
	err error
}

func (p *parser) fail(field string, format string, args ...interface{}) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s: %s", ErrMalformedAnalysis, field, fmt.Sprintf(format, args...))
	}
}

func (p *parser) decode(field string, msg json.RawMessage) []string {
	if len(msg) == 0 || string(msg) == "null" {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(msg, &v); err != nil {
		p.fail(field, "%v", err)
		return nil
	}
	var out []string
	if err := flatten(v, &out); err != nil {
		p.fail(field, "%v", err)
		return nil
	}
	return out
}

func (p *parser) list(field string, msg json.RawMessage) []string {
	return dedupe(p.decode(field, msg))
}

func (p *parser) scalar(field string, msg json.RawMessage) string {
	values := dedupe(p.decode(field, msg))
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		p.fail(field, "expected a single value, got %d", len(values))
		return ""
	}
}

func (p *parser) narrative(field string, msg json.RawMessage) string {
	v := p.scalar(field, msg)
	if v == "" {
		return Ambiguous
	}
	return v
}

// flatten collects every string leaf of v, descending into nested lists.
func flatten(v interface{}, out *[]string) error {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		*out = append(*out, t)
		return nil
	case []interface{}:
		for _, item := range t {
			if err := flatten(item, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unexpected %T value", v)
	}
}

func label(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = label(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func clampIntensity(v int) int {
	switch {
	case v == 0:
		return 5
	case v < 1:
		return 1
	case v > 10:
		return 10
	default:
		return v
	}
}
