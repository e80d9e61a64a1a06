package clients

import (
	"context"

	"github.com/noah-isme/diagram-search-api/internal/models"
)

// ImageSearchClient queries an external image search provider.
type ImageSearchClient interface {
	SearchImages(ctx context.Context, query string, limit int) ([]models.ImageResult, error)
}

// CaptionClient asks a text generation provider for a short caption.
type CaptionClient interface {
	GenerateCaption(ctx context.Context, prompt string) (string, error)
}
