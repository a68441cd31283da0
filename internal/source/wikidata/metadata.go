package wikidata

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/timmy/artmatch/internal/cache"
	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/metrics"
)

// Metadata is the presentation data of one artwork. Empty fields are unknown.
type Metadata struct {
	Title      string
	Artist     string
	Year       *int
	Dimensions string
}

// MetadataClient looks up artwork labels, inception year and dimensions.
// Results are memoized; failed lookups return empty metadata.
type MetadataClient struct {
	client *Client
	cache  *cache.Bounded[Metadata]
}

// NewMetadataClient creates a new metadata client.
// Parameters:
//   - client: SPARQL client used for lookups.
//   - capacity: bounded cache capacity.
//
// Returns:
//   - *MetadataClient: initialized client.
func NewMetadataClient(client *Client, capacity int) *MetadataClient {
	return &MetadataClient{
		client: client,
		cache:  cache.New[Metadata](capacity),
	}
}

// Lookup returns what is known about an artwork. It never fails: upstream
// errors are logged and reported as missing values, and are not cached.
func (m *MetadataClient) Lookup(ctx context.Context, id string) Metadata {
	if !codePattern.MatchString(id) {
		return Metadata{}
	}

	key := cache.Key("metadata", cache.Params{"id": id, "lang": m.client.Language()})
	if md, ok := m.cache.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("metadata", metrics.CacheResult(true)).Inc()
		return md
	}
	metrics.CacheLookups.WithLabelValues("metadata", metrics.CacheResult(false)).Inc()

	md, err := m.cache.GetOrLoad(ctx, key, func(ctx context.Context) (Metadata, error) {
		return m.fetch(ctx, id)
	})
	if err != nil {
		logger.With(logger.Fields{
			logger.FieldCandidateID: id,
			logger.FieldSource:      "wikidata",
		}).Warn(ctx, "Metadata lookup failed: %v", err)
		return Metadata{}
	}
	return md
}

// Hydrate fills missing title, artist, year and dimensions. Known values are
// never overwritten.
func (m *MetadataClient) Hydrate(ctx context.Context, candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)

	for i := range out {
		c := &out[i]
		if c.Title != "" && c.Artist != "" && c.Year != nil && c.Dimensions != "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		md := m.Lookup(ctx, c.ID)
		if c.Title == "" {
			c.Title = md.Title
		}
		if c.Artist == "" {
			c.Artist = md.Artist
		}
		if c.Year == nil {
			c.Year = md.Year
		}
		if c.Dimensions == "" {
			c.Dimensions = md.Dimensions
		}
	}
	return out
}

// Stats exposes the metadata cache counters.
func (m *MetadataClient) Stats() cache.Stats {
	return m.cache.Stats()
}

func (m *MetadataClient) fetch(ctx context.Context, id string) (Metadata, error) {
	rows, err := m.client.Query(ctx, buildMetadataQuery(id, m.client.Language()))
	if err != nil {
		return Metadata{}, err
	}

	var md Metadata
	for _, row := range rows {
		if md.Title == "" {
			md.Title = cleanText(row.Value("itemLabel"))
		}
		if md.Artist == "" {
			md.Artist = cleanText(row.Value("artistLabel"))
		}
		if md.Year == nil {
			md.Year = parseYear(row.Value("inception"))
		}
		if md.Dimensions == "" {
			md.Dimensions = formatDimensions(row.Value("height"), row.Value("width"))
		}
	}
	return md, nil
}

func buildMetadataQuery(id, lang string) string {
	return fmt.Sprintf(`SELECT ?itemLabel ?artistLabel ?inception ?height ?width WHERE {
  OPTIONAL { wd:%[1]s rdfs:label ?itemLabel . FILTER(LANG(?itemLabel) = "%[2]s") }
  OPTIONAL { wd:%[1]s wdt:P170 ?artist . ?artist rdfs:label ?artistLabel . FILTER(LANG(?artistLabel) = "%[2]s") }
  OPTIONAL { wd:%[1]s wdt:P571 ?inception . }
  OPTIONAL { wd:%[1]s wdt:P2048 ?height . wd:%[1]s wdt:P2049 ?width . }
}
LIMIT 5
`, id, lang)
}

var yearPattern = regexp.MustCompile(`^([+-]?)(\d{1,4})`)

// parseYear reads the year of an xsd:dateTime value such as
// "1889-01-01T00:00:00Z" or "-0500-01-01T00:00:00Z".
func parseYear(v string) *int {
	m := yearPattern.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return nil
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	if m[1] == "-" {
		year = -year
	}
	return &year
}

func formatDimensions(height, width string) string {
	if height == "" || width == "" {
		return ""
	}
	return fmt.Sprintf("%s cm × %s cm", trimNumber(height), trimNumber(width))
}

func trimNumber(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
