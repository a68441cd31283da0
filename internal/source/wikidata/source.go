package wikidata

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/source"
)

// defaultTypes are queried when a query names no artwork types.
var defaultTypes = []string{source.TypePainting, source.TypePhotograph, source.TypeSculpture}

// Source implements source.CandidateSource over the Wikidata SPARQL endpoint.
type Source struct {
	client *Client
}

// NewSource creates a new Wikidata candidate source.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// GetSourceID returns the unique identifier for this source.
func (s *Source) GetSourceID() string {
	return "wikidata"
}

// FetchCandidates runs the artwork query and aggregates rows per artwork.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - q: subject codes, types, popularity ceiling and paging.
//
// Returns:
//   - []domain.Candidate: artworks in first-seen row order.
//   - error: non-nil if the endpoint failed after retries.
func (s *Source) FetchCandidates(ctx context.Context, q source.Query) ([]domain.Candidate, error) {
	q = q.Normalized()

	rows, err := s.client.Query(ctx, BuildArtworkQuery(q))
	if err != nil {
		return nil, fmt.Errorf("failed to query artworks: %w", err)
	}
	return aggregate(rows), nil
}

// BuildArtworkQuery renders the SPARQL for a candidate query. Rows carry one
// subject, one optional genre and the optional inception date each; callers
// aggregate them per artwork.
func BuildArtworkQuery(q source.Query) string {
	types := q.CandidateTypes
	if len(types) == 0 {
		types = defaultTypes
	}

	var b strings.Builder
	b.WriteString("SELECT ?artwork ?image ?sitelinks ?artworkType ?subject ?genre ?inception WHERE {\n")
	b.WriteString("  ?artwork wdt:P31 ?artworkType .\n")
	fmt.Fprintf(&b, "  FILTER(?artworkType IN (%s))\n", entityList(types))
	b.WriteString("  ?artwork wdt:P18 ?image .\n")
	b.WriteString("  ?artwork wikibase:sitelinks ?sitelinks .\n")
	if q.PopularityCeiling > 0 {
		fmt.Fprintf(&b, "  FILTER(?sitelinks < %d)\n", q.PopularityCeiling)
	}
	if len(q.SubjectCodes) > 0 {
		b.WriteString("  ?artwork wdt:P180 ?subject .\n")
		fmt.Fprintf(&b, "  FILTER(?subject IN (%s))\n", entityList(q.SubjectCodes))
	} else {
		b.WriteString("  OPTIONAL { ?artwork wdt:P180 ?subject . }\n")
	}
	b.WriteString("  OPTIONAL { ?artwork wdt:P136 ?genre . }\n")
	b.WriteString("  OPTIONAL { ?artwork wdt:P571 ?inception . }\n")
	b.WriteString("}\n")
	if q.RandomOrder {
		b.WriteString("ORDER BY RAND()\n")
	}
	fmt.Fprintf(&b, "LIMIT %d\n", q.Limit)
	if q.Offset > 0 {
		fmt.Fprintf(&b, "OFFSET %d\n", q.Offset)
	}
	return b.String()
}

var codePattern = regexp.MustCompile(`^Q\d+$`)

func entityList(codes []string) string {
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		if !codePattern.MatchString(code) {
			continue
		}
		parts = append(parts, "wd:"+code)
	}
	return strings.Join(parts, ", ")
}

// aggregate folds per-subject rows into one candidate per artwork.
func aggregate(rows []Binding) []domain.Candidate {
	index := make(map[string]int)
	var out []domain.Candidate

	for _, row := range rows {
		id := row.Entity("artwork")
		image := row.Value("image")
		if id == "" || image == "" {
			continue
		}

		i, ok := index[id]
		if !ok {
			artworkType := row.Entity("artworkType")
			sitelinks, _ := strconv.Atoi(row.Value("sitelinks"))
			out = append(out, domain.Candidate{
				ID:          id,
				ArtworkType: artworkType,
				ImageURL:    HighResImageURL(image),
				Popularity:  sitelinks,
				Medium:      source.MediumForType(artworkType),
			})
			i = len(out) - 1
			index[id] = i
		}

		c := &out[i]
		if subject := row.Entity("subject"); subject != "" {
			c.SubjectCodes = appendUnique(c.SubjectCodes, subject)
		}
		if genre := row.Entity("genre"); genre != "" {
			c.GenreCodes = appendUnique(c.GenreCodes, genre)
		}
		if c.Year == nil {
			c.Year = parseYear(row.Value("inception"))
		}
	}
	return out
}

var thumbPattern = regexp.MustCompile(`/thumb/([^/]+/[^/]+/[^/]+\.(?i:jpe?g|png|gif|tiff?|webp))/`)

// HighResImageURL rewrites a Commons thumbnail URL to the original file.
// Other URLs are returned unchanged.
func HighResImageURL(u string) string {
	if !strings.Contains(u, "/thumb/") {
		return u
	}
	m := thumbPattern.FindStringSubmatch(u)
	if m == nil {
		return u
	}
	return "https://upload.wikimedia.org/wikipedia/commons/" + m[1]
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
