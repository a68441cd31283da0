package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/source"
)

// ManifestFileName is the JSONL manifest file name in a catalog directory.
const ManifestFileName = "manifest.jsonl"

// ManifestItem represents an artwork line in manifest.jsonl.
type ManifestItem struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Artist           string   `json:"artist"`
	ArtworkType      string   `json:"artwork_type"`
	SubjectCodes     []string `json:"subject_codes"`
	GenreCodes       []string `json:"genre_codes"`
	Year             *int     `json:"year"`
	ImageURL         string   `json:"image_url"`
	Sitelinks        int      `json:"sitelinks"`
	DepictedSubjects []string `json:"depicted_subjects"`
	Style            string   `json:"style"`
	Medium           string   `json:"medium"`
	Dimensions       string   `json:"dimensions"`
}

// Adapter implements source.CandidateSource over a local manifest.
type Adapter struct {
	basePath string
	seed     uint64

	mu     sync.Mutex
	items  []domain.Candidate
	loaded bool
	calls  uint64
}

// NewAdapter creates a new catalog adapter.
// Parameters:
//   - basePath: directory containing manifest.jsonl.
//   - seed: seed for random ordering; repeated queries draw different orders.
// Returns:
//   - *Adapter: initialized catalog adapter.
func NewAdapter(basePath string, seed uint64) *Adapter {
	return &Adapter{basePath: basePath, seed: seed}
}

// NewAdapterFromItems builds an adapter over in-memory candidates.
func NewAdapterFromItems(items []domain.Candidate, seed uint64) *Adapter {
	a := &Adapter{seed: seed, loaded: true}
	a.items = append(a.items, items...)
	sortCandidates(a.items)
	return a
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "catalog:" + filepath.Base(a.basePath)
}

// FetchCandidates filters the catalog with the same semantics as the
// remote source: any shared subject code, type membership, popularity
// ceiling, then ordering, offset and limit.
func (a *Adapter) FetchCandidates(ctx context.Context, q source.Query) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q = q.Normalized()

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		if err := a.loadItems(ctx); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		a.loaded = true
	}

	subjects := toSet(q.SubjectCodes)
	types := toSet(q.CandidateTypes)

	var matched []domain.Candidate
	for _, item := range a.items {
		if len(subjects) > 0 && !anyIn(subjects, item.SubjectCodes) {
			continue
		}
		if len(types) > 0 {
			if _, ok := types[item.ArtworkType]; !ok {
				continue
			}
		}
		if q.PopularityCeiling > 0 && item.Popularity >= q.PopularityCeiling {
			continue
		}
		matched = append(matched, item)
	}

	if q.RandomOrder {
		a.calls++
		rng := rand.New(rand.NewPCG(a.seed, a.calls))
		rng.Shuffle(len(matched), func(i, j int) {
			matched[i], matched[j] = matched[j], matched[i]
		})
	}

	if q.Offset >= len(matched) {
		return []domain.Candidate{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]domain.Candidate, end-q.Offset)
	copy(out, matched[q.Offset:end])
	return out, nil
}

// Len returns the number of artworks in the catalog.
func (a *Adapter) Len() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		if err := a.loadItems(context.Background()); err != nil {
			return 0, err
		}
		a.loaded = true
	}
	return len(a.items), nil
}

// loadItems loads all items from the manifest file
func (a *Adapter) loadItems(ctx context.Context) error {
	manifestPath := filepath.Join(a.basePath, ManifestFileName)

	file, err := os.Open(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("manifest file not found: %s", manifestPath)
		}
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	a.items = []domain.Candidate{}
	skipped := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item ManifestItem
		if err := json.Unmarshal([]byte(line), &item); err != nil || item.ID == "" {
			skipped++
			continue
		}
		a.items = append(a.items, item.toCandidate())
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading manifest: %w", err)
	}

	if skipped > 0 {
		logger.With(logger.Fields{
			logger.FieldSource: a.GetSourceID(),
			logger.FieldCount:  skipped,
		}).Warn(ctx, "Skipped malformed manifest lines")
	}

	sortCandidates(a.items)
	return nil
}

func (m ManifestItem) toCandidate() domain.Candidate {
	medium := m.Medium
	if medium == "" {
		medium = source.MediumForType(m.ArtworkType)
	}
	return domain.Candidate{
		ID:               m.ID,
		Title:            m.Title,
		Artist:           m.Artist,
		ArtworkType:      m.ArtworkType,
		SubjectCodes:     m.SubjectCodes,
		GenreCodes:       m.GenreCodes,
		Year:             m.Year,
		ImageURL:         m.ImageURL,
		Popularity:       m.Sitelinks,
		DepictedSubjects: m.DepictedSubjects,
		Style:            m.Style,
		Medium:           medium,
		Dimensions:       m.Dimensions,
	}
}

// sortCandidates orders by ID for consistent paging.
func sortCandidates(items []domain.Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func anyIn(set map[string]struct{}, values []string) bool {
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
