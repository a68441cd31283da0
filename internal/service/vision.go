package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/metrics"
	"github.com/timmy/artmatch/internal/prompts"
)

const (
	visionMaxTokens = 1000
	// estimatedCallTokens covers a high-detail image plus the full reply.
	estimatedCallTokens = 2000
)

// VisionService extracts visual attributes from artwork images through an
// OpenAI-compatible chat completion API.
type VisionService struct {
	client   *resty.Client
	model    string
	endpoint string
	breaker  *gobreaker.CircuitBreaker[*domain.VisualAttributes]
	guard    *CostGuard
	probe    *ImageProbe
}

// VisionConfig holds configuration for the vision service.
type VisionConfig struct {
	Model           string
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// NewVisionService creates a new vision service.
// Parameters:
//   - cfg: model, credentials and breaker settings.
//   - guard: daily budget; nil disables budget checks.
//   - probe: optional image preflight; nil skips it.
//
// Returns:
//   - *VisionService: initialized client wrapper.
func NewVisionService(cfg *VisionConfig, guard *CostGuard, probe *ImageProbe) *VisionService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}

	breaker := gobreaker.NewCircuitBreaker[*domain.VisualAttributes](gobreaker.Settings{
		Name:        "vision-api",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Budget refusals and unusable images say nothing about the API's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrBudgetExceeded) || errors.Is(err, ErrImageRejected) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.GetDefault().WithFields(logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &VisionService{
		client:   client,
		model:    model,
		endpoint: baseURL + "/chat/completions",
		breaker:  breaker,
		guard:    guard,
		probe:    probe,
	}
}

// GetModel returns the model name being used.
func (s *VisionService) GetModel() string {
	return s.model
}

// OpenAI-compatible Chat Completion API request/response structures
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type openAITextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIImageContent struct {
	Type     string         `json:"type"`
	ImageURL openAIImageURL `json:"image_url"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Enrich analyzes the candidate's image. It implements Enricher.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - candidate: artwork with an image URL.
//
// Returns:
//   - *domain.VisualAttributes: normalized attributes.
//   - error: ErrNoImage, ErrImageRejected, ErrBudgetExceeded, an open breaker
//     or an API failure.
func (s *VisionService) Enrich(ctx context.Context, candidate domain.Candidate) (*domain.VisualAttributes, error) {
	if !candidate.HasImage() {
		return nil, ErrNoImage
	}
	return s.breaker.Execute(func() (*domain.VisualAttributes, error) {
		return s.analyze(ctx, candidate.ImageURL)
	})
}

func (s *VisionService) analyze(ctx context.Context, imageURL string) (*domain.VisualAttributes, error) {
	var hold *Reservation
	if s.guard != nil {
		var err error
		hold, err = s.guard.Reserve(ctx, EstimateCost(estimatedCallTokens, s.model))
		if err != nil {
			return nil, err
		}
		defer hold.Release()
	}
	if s.probe != nil {
		if _, err := s.probe.Probe(ctx, imageURL); err != nil {
			return nil, err
		}
	}

	req := openAIRequest{
		Model: s.model,
		Messages: []openAIMessage{
			{
				Role:    "system",
				Content: prompts.VisionSystemPrompt,
			},
			{
				Role: "user",
				Content: []interface{}{
					openAITextContent{
						Type: "text",
						Text: prompts.VisionUserPrompt,
					},
					openAIImageContent{
						Type: "image_url",
						ImageURL: openAIImageURL{
							URL:    imageURL,
							Detail: "high",
						},
					},
				},
			},
		},
		MaxTokens:   visionMaxTokens,
		Temperature: 0.3,
	}

	var resp openAIResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.endpoint)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("vision", "error").Inc()
		return nil, fmt.Errorf("failed to call vision API: %w", err)
	}

	status := httpResp.StatusCode()
	metrics.UpstreamRequests.WithLabelValues("vision", strconv.Itoa(status)).Inc()
	if status < 200 || status >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d: %s", status, string(httpResp.Body()))
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", status, resp.Error.Message)
		}
		return nil, fmt.Errorf("vision API returned error: %s", errorMsg)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("vision API error: %s", resp.Error.Message)
	}

	if s.guard != nil {
		tokens := resp.Usage.TotalTokens
		if tokens == 0 {
			tokens = resp.Usage.PromptTokens + resp.Usage.CompletionTokens
		}
		hold.Commit(ctx, tokens, s.model)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from vision API (status: %d)", status)
	}
	return ParseVisualAttributes(resp.Choices[0].Message.Content)
}

// ParseVisualAttributes extracts the first JSON object from a model reply,
// tolerating surrounding prose or code fences, and normalizes it.
func ParseVisualAttributes(content string) (*domain.VisualAttributes, error) {
	jsonStart := strings.Index(content, "{")
	if jsonStart == -1 {
		return nil, fmt.Errorf("no JSON found in response")
	}

	braceCount := 0
	jsonEnd := -1
	inString := false
	escaped := false
findJSON:
	for i := jsonStart; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			braceCount++
		case c == '}':
			braceCount--
			if braceCount == 0 {
				jsonEnd = i + 1
				break findJSON
			}
		}
	}
	if jsonEnd == -1 {
		return nil, fmt.Errorf("incomplete JSON in response")
	}

	var raw struct {
		DetectedObjects []string `json:"detected_objects"`
		DominantColors  []string `json:"dominant_colors"`
		Setting         string   `json:"setting"`
		TimeOfDay       string   `json:"time_of_day"`
		Season          string   `json:"season"`
		SeasonLegacy    string   `json:"season_indicators"`
		HumanPresence   string   `json:"human_presence"`
		Composition     string   `json:"composition"`
		Mood            string   `json:"mood"`
	}
	if err := json.Unmarshal([]byte(content[jsonStart:jsonEnd]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	season := raw.Season
	if season == "" {
		season = raw.SeasonLegacy
	}
	v := &domain.VisualAttributes{
		DetectedObjects: raw.DetectedObjects,
		DominantColors:  raw.DominantColors,
		Setting:         raw.Setting,
		TimeOfDay:       raw.TimeOfDay,
		Season:          season,
		HumanPresence:   raw.HumanPresence,
		Composition:     raw.Composition,
		Mood:            raw.Mood,
	}
	v.Normalize()
	if v.Season == "none" {
		v.Season = ""
	}
	return v, nil
}
