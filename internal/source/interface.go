package source

import (
	"context"

	"github.com/timmy/artmatch/internal/domain"
)

// Artwork type codes understood by every candidate source.
const (
	TypePainting     = "Q3305213"
	TypePhotograph   = "Q125191"
	TypeSculpture    = "Q860861"
	TypeDrawing      = "Q42973"
	TypePrint        = "Q93184"
	TypeMural        = "Q11661"
	TypeDigitalArt   = "Q11060274"
	TypeIllustration = "Q1044167"
)

// MaxSubjectCodes caps the subject codes sent in one query.
const MaxSubjectCodes = 10

// Query describes one candidate retrieval.
type Query struct {
	SubjectCodes      []string // Match any of these (empty matches all)
	GenreCodes        []string // Reserved for sources that can filter on genre
	CandidateTypes    []string // Artwork type codes (empty allows all)
	PopularityCeiling int      // Maximum sitelinks, 0 disables the ceiling
	Limit             int
	Offset            int
	RandomOrder       bool
}

// Normalized returns a copy with the subject list capped and a usable limit.
func (q Query) Normalized() Query {
	if len(q.SubjectCodes) > MaxSubjectCodes {
		q.SubjectCodes = append([]string(nil), q.SubjectCodes[:MaxSubjectCodes]...)
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// CandidateSource defines the interface for artwork candidate sources.
type CandidateSource interface {
	// GetSourceID returns the unique identifier for this source.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier.
	GetSourceID() string

	// FetchCandidates returns candidates matching the query.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - q: retrieval parameters.
	// Returns:
	//   - []domain.Candidate: matching candidates, possibly empty.
	//   - error: non-nil if the source could not be queried.
	FetchCandidates(ctx context.Context, q Query) ([]domain.Candidate, error)
}

// Hydrator fills presentation metadata on candidates that lack it.
type Hydrator interface {
	// Hydrate returns the candidates with missing labels, year and
	// dimensions filled where known. Failures leave values missing.
	Hydrate(ctx context.Context, candidates []domain.Candidate) []domain.Candidate
}

// MediumForType maps an artwork type code to a display medium.
func MediumForType(code string) string {
	switch code {
	case TypePainting:
		return "Oil on canvas"
	case TypePhotograph:
		return "Photograph"
	case TypeSculpture:
		return "Marble sculpture"
	case TypeDrawing:
		return "Pencil on paper"
	case TypePrint:
		return "Print"
	case TypeMural:
		return "Mural"
	case TypeDigitalArt:
		return "Digital art"
	case TypeIllustration:
		return "Illustration"
	default:
		return "Mixed media"
	}
}
