package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	_ "golang.org/x/image/webp"

	"github.com/timmy/artmatch/internal/metrics"
)

// ErrImageRejected is returned when an image cannot be analyzed: it is
// unreachable, not a decodable image, or too small to carry detail.
var ErrImageRejected = errors.New("image rejected")

const (
	probeReadLimit = 1 << 20
	minImageSide   = 64
)

// ImageInfo is what the probe learned from the image header.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// ImageProbe checks that an image URL serves a decodable image before a
// paid vision call is made. Only the header bytes are read.
type ImageProbe struct {
	client *resty.Client
}

// NewImageProbe creates a probe with its own HTTP client.
func NewImageProbe(timeout time.Duration, userAgent string) *ImageProbe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &ImageProbe{client: client}
}

// Probe fetches the start of the image and decodes its configuration.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - imageURL: absolute image URL.
//
// Returns:
//   - ImageInfo: format and dimensions.
//   - error: ErrImageRejected (wrapped) if the image is unusable.
func (p *ImageProbe) Probe(ctx context.Context, imageURL string) (ImageInfo, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("image", "error").Inc()
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrImageRejected, err)
	}
	body := resp.RawBody()
	defer body.Close()

	metrics.UpstreamRequests.WithLabelValues("image", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return ImageInfo{}, fmt.Errorf("%w: HTTP %d", ErrImageRejected, resp.StatusCode())
	}

	cfg, format, err := image.DecodeConfig(io.LimitReader(body, probeReadLimit))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrImageRejected, err)
	}
	if cfg.Width < minImageSide || cfg.Height < minImageSide {
		return ImageInfo{}, fmt.Errorf("%w: %dx%d is too small", ErrImageRejected, cfg.Width, cfg.Height)
	}
	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
