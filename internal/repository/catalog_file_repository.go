package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/noah-isme/diagram-search-api/internal/models"
)

// FileCatalogRepository keeps the catalog in a JSON document on disk.
// The file is read on every call so manual edits are picked up without a restart.
type FileCatalogRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileCatalogRepository constructs a file backed catalog store.
func NewFileCatalogRepository(path string) *FileCatalogRepository {
	return &FileCatalogRepository{path: path}
}

// Load reads the whole catalog. A missing file is an empty catalog.
func (r *FileCatalogRepository) Load(ctx context.Context) (models.Catalog, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Catalog{}, nil
		}
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	catalog := models.Catalog{}
	if len(raw) == 0 {
		return catalog, nil
	}
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog file %s: %w", r.path, err)
	}
	return catalog, nil
}

// Bucket returns the keywords for one grade/subject pair.
func (r *FileCatalogRepository) Bucket(ctx context.Context, grade, subject string) ([]string, error) {
	catalog, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Bucket(grade, subject), nil
}

// UpdateBucket applies fn to a bucket and rewrites the file atomically.
func (r *FileCatalogRepository) UpdateBucket(ctx context.Context, grade, subject string, fn BucketUpdater) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.Load(ctx)
	if err != nil {
		return err
	}

	current := append([]string(nil), catalog.Bucket(grade, subject)...)
	next, err := fn(current)
	if err != nil {
		return err
	}
	catalog.SetBucket(grade, subject, next)

	return r.write(catalog)
}

func (r *FileCatalogRepository) write(catalog models.Catalog) error {
	payload, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp catalog: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace catalog file: %w", err)
	}
	return nil
}
