package image

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/conceptforge/concept-api/internal/domain/concept"
	"github.com/conceptforge/concept-api/internal/domain/repository"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var _ repository.ImageGenerator = (*Generator)(nil)

// Generator fans a block of text out into several single-image calls.
type Generator struct {
	service     repository.ImageService
	concurrency int
	suffix      string
}

// NewGenerator builds a Generator. concurrency below 1 is treated as 1.
func NewGenerator(service repository.ImageService, concurrency int, suffix string) *Generator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Generator{
		service:     service,
		concurrency: concurrency,
		suffix:      suffix,
	}
}

// GenerateImages returns up to count image URLs in submission order. Individual
// failures are logged and dropped; only a run with no URLs at all is an error.
func (g *Generator) GenerateImages(ctx context.Context, text string, count int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required for image generation", concept.ErrInvalidInput)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: image count must be at least 1, got %d", concept.ErrInvalidInput, count)
	}

	instructions := DeriveInstructions(text, count, g.suffix)
	log.Printf("[Image] Requesting %d images from %s (concurrency %d)", len(instructions), g.service.Name(), g.concurrency)

	slots := make([]string, len(instructions))
	failures := make([]error, len(instructions))

	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for i, instruction := range instructions {
		eg.Go(func() error {
			url, err := g.service.GenerateImage(ctx, instruction)
			if err == nil && strings.TrimSpace(url) == "" {
				err = fmt.Errorf("%w: %s returned an empty URL", concept.ErrUpstreamFormat, g.service.Name())
			}
			if err != nil {
				log.Printf("[Image] Warning: image %d/%d failed: %v", i+1, len(instructions), err)
				failures[i] = err
				return nil
			}
			slots[i] = strings.TrimSpace(url)
			return nil
		})
	}
	_ = eg.Wait()

	urls := lo.Compact(slots)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: all %d image requests failed (first error: %v)",
			concept.ErrImageGenerationFailed, len(instructions), lo.Compact(failures)[0])
	}
	if len(urls) > count {
		urls = urls[:count]
	}

	if len(urls) < count {
		log.Printf("[Image] Returning %d of %d requested images", len(urls), count)
	}
	return urls, nil
}
