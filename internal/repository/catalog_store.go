package repository

import (
	"context"

	"github.com/noah-isme/diagram-search-api/internal/models"
)

// BucketUpdater receives the current bucket and returns its replacement.
// Returning an error aborts the update without writing.
type BucketUpdater func(current []string) ([]string, error)

// CatalogStore persists the keyword catalog. UpdateBucket must run its
// read-check-write as one atomic step per grade/subject bucket.
type CatalogStore interface {
	Load(ctx context.Context) (models.Catalog, error)
	Bucket(ctx context.Context, grade, subject string) ([]string, error)
	UpdateBucket(ctx context.Context, grade, subject string, fn BucketUpdater) error
}

var (
	_ CatalogStore = (*FileCatalogRepository)(nil)
	_ CatalogStore = (*PostgresCatalogRepository)(nil)
	_ CatalogStore = (*RedisCatalogRepository)(nil)
)
