package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/diagram-search-api/internal/models"
)

const redisCatalogMaxRetries = 5

// RedisCatalogRepository keeps the catalog as one JSON value and mutates it with WATCH/MULTI.
type RedisCatalogRepository struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisCatalogRepository constructs a Redis backed catalog store.
func NewRedisCatalogRepository(client *redis.Client, key string, logger *zap.Logger) *RedisCatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCatalogRepository{client: client, key: key, logger: logger}
}

// Load returns the stored catalog, empty when the key does not exist.
func (r *RedisCatalogRepository) Load(ctx context.Context) (models.Catalog, error) {
	return decodeCatalog(r.client.Get(ctx, r.key).Bytes())
}

// Bucket returns the keywords for one grade/subject pair.
func (r *RedisCatalogRepository) Bucket(ctx context.Context, grade, subject string) ([]string, error) {
	catalog, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Bucket(grade, subject), nil
}

// UpdateBucket applies fn under an optimistic transaction, retrying when the key changed underneath.
func (r *RedisCatalogRepository) UpdateBucket(ctx context.Context, grade, subject string, fn BucketUpdater) error {
	txf := func(tx *redis.Tx) error {
		catalog, err := decodeCatalog(tx.Get(ctx, r.key).Bytes())
		if err != nil {
			return err
		}
		next, err := fn(append([]string(nil), catalog.Bucket(grade, subject)...))
		if err != nil {
			return err
		}
		catalog.SetBucket(grade, subject, next)

		payload, err := json.Marshal(catalog)
		if err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= redisCatalogMaxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, r.key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		r.logger.Debug("catalog update raced, retrying", zap.Int("attempt", attempt), zap.String("grade", grade), zap.String("subject", subject))
	}
	return fmt.Errorf("update catalog bucket %s/%s: %w", grade, subject, redis.TxFailedErr)
}

func decodeCatalog(raw []byte, err error) (models.Catalog, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Catalog{}, nil
		}
		return nil, fmt.Errorf("redis get catalog: %w", err)
	}
	catalog := models.Catalog{}
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return catalog, nil
}
