package wikidata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/timmy/artmatch/internal/metrics"
	"github.com/timmy/artmatch/internal/retry"
)

const (
	defaultEndpoint  = "https://query.wikidata.org/sparql"
	defaultUserAgent = "artmatch/1.0"
)

// ErrUpstream reports a non-success response from the SPARQL endpoint.
var ErrUpstream = errors.New("wikidata: upstream error")

// Config holds configuration for the SPARQL client.
type Config struct {
	Endpoint     string
	Language     string
	UserAgent    string
	Timeout      time.Duration
	RatePerSec   float64
	RetryCount   int
	RetryBackoff time.Duration
}

// Client issues rate-limited, retried SPARQL queries.
type Client struct {
	http     *resty.Client
	endpoint string
	language string
	limiter  *rate.Limiter
	retry    retry.Config
}

// NewClient creates a new SPARQL client.
// Parameters:
//   - cfg: endpoint, pacing and retry settings.
//
// Returns:
//   - *Client: initialized client.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}

	client := resty.New()
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "application/sparql-results+json")
	client.SetTimeout(timeout)

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	rc := retry.DefaultConfig()
	rc.Name = "wikidata query"
	if cfg.RetryCount > 0 {
		rc.MaxAttempts = cfg.RetryCount
	}
	if cfg.RetryBackoff > 0 {
		rc.InitialDelay = cfg.RetryBackoff
	}

	return &Client{
		http:     client,
		endpoint: endpoint,
		language: language,
		limiter:  rate.NewLimiter(limit, 1),
		retry:    rc,
	}
}

// Binding is one SPARQL result row: variable name to typed value.
type Binding map[string]struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (b Binding) Value(name string) string {
	return b[name].Value
}

// Entity returns the trailing Q-code of an entity URI variable.
func (b Binding) Entity(name string) string {
	return EntityID(b[name].Value)
}

type sparqlResponse struct {
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// Query runs a SELECT query and returns its bindings.
// Transient failures and undecodable bodies are retried; 4xx responses other
// than 429 are not.
func (c *Client) Query(ctx context.Context, query string) ([]Binding, error) {
	return retry.DoWithResult(ctx, c.retry, func(ctx context.Context) ([]Binding, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, retry.Permanent(err)
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"query":  query,
				"format": "json",
			}).
			Get(c.endpoint)
		if err != nil {
			metrics.UpstreamRequests.WithLabelValues("wikidata", "error").Inc()
			if ctx.Err() != nil {
				return nil, retry.Permanent(ctx.Err())
			}
			return nil, fmt.Errorf("failed to call SPARQL endpoint: %w", err)
		}

		status := resp.StatusCode()
		metrics.UpstreamRequests.WithLabelValues("wikidata", strconv.Itoa(status)).Inc()
		if status < 200 || status >= 300 {
			err := fmt.Errorf("%w: HTTP %d", ErrUpstream, status)
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
				return nil, retry.Permanent(err)
			}
			return nil, err
		}

		// Decode regardless of Content-Type; a mislabelled error page must
		// fail here rather than read as zero rows.
		var out sparqlResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return nil, fmt.Errorf("%w: undecodable body: %v", ErrUpstream, err)
		}
		return out.Results.Bindings, nil
	})
}

// Language returns the label language used in queries.
func (c *Client) Language() string {
	return c.language
}

// EntityID extracts the Q-code from an entity URI; plain codes pass through.
func EntityID(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
