package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/diagram-search-api/internal/models"
)

// PostgresCatalogRepository stores one row per keyword in topic_keywords.
type PostgresCatalogRepository struct {
	db *sqlx.DB
}

// NewPostgresCatalogRepository constructs the repository.
func NewPostgresCatalogRepository(db *sqlx.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

type keywordRow struct {
	Grade   string `db:"grade"`
	Subject string `db:"subject"`
	Keyword string `db:"keyword"`
}

// Load returns every bucket ordered by position.
func (r *PostgresCatalogRepository) Load(ctx context.Context) (models.Catalog, error) {
	const query = `SELECT grade, subject, keyword FROM topic_keywords ORDER BY grade, subject, position`
	var rows []keywordRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	catalog := models.Catalog{}
	for _, row := range rows {
		catalog.SetBucket(row.Grade, row.Subject, append(catalog.Bucket(row.Grade, row.Subject), row.Keyword))
	}
	return catalog, nil
}

// Bucket returns the keywords for one grade/subject pair.
func (r *PostgresCatalogRepository) Bucket(ctx context.Context, grade, subject string) ([]string, error) {
	const query = `SELECT keyword FROM topic_keywords WHERE grade = $1 AND subject = $2 ORDER BY position`
	var keywords []string
	if err := r.db.SelectContext(ctx, &keywords, query, grade, subject); err != nil {
		return nil, fmt.Errorf("load catalog bucket: %w", err)
	}
	return keywords, nil
}

// UpdateBucket applies fn inside a transaction holding an advisory lock on the bucket,
// so concurrent approvals for the same grade/subject are serialised.
func (r *PostgresCatalogRepository) UpdateBucket(ctx context.Context, grade, subject string, fn BucketUpdater) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, grade+"/"+subject); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("lock catalog bucket: %w", err)
	}

	var current []string
	const selectQuery = `SELECT keyword FROM topic_keywords WHERE grade = $1 AND subject = $2 ORDER BY position`
	if err := tx.SelectContext(ctx, &current, selectQuery, grade, subject); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("load catalog bucket: %w", err)
	}

	next, err := fn(append([]string(nil), current...))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	start := len(current)
	if !hasPrefix(next, current) {
		const deleteQuery = `DELETE FROM topic_keywords WHERE grade = $1 AND subject = $2`
		if _, err := tx.ExecContext(ctx, deleteQuery, grade, subject); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear catalog bucket: %w", err)
		}
		start = 0
	}

	const insertQuery = `INSERT INTO topic_keywords (grade, subject, position, keyword) VALUES ($1, $2, $3, $4)`
	for i := start; i < len(next); i++ {
		if _, err := tx.ExecContext(ctx, insertQuery, grade, subject, i, next[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert catalog keyword: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog tx: %w", err)
	}
	return nil
}

func hasPrefix(list, prefix []string) bool {
	if len(prefix) > len(list) {
		return false
	}
	for i := range prefix {
		if list[i] != prefix[i] {
			return false
		}
	}
	return true
}
