package repository

import (
	"context"
)

// ImageService produces a single image for a single instruction and returns its URL.
type ImageService interface {
	GenerateImage(ctx context.Context, instruction string) (string, error)
	Name() string
}

// ImageGenerator produces up to count image URLs for a block of text.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, text string, count int) ([]string, error)
}
