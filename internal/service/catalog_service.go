package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/diagram-search-api/internal/models"
	"github.com/noah-isme/diagram-search-api/internal/repository"
	appErrors "github.com/noah-isme/diagram-search-api/pkg/errors"
	"github.com/noah-isme/diagram-search-api/pkg/export"
)

type catalogStore interface {
	Load(ctx context.Context) (models.Catalog, error)
	Bucket(ctx context.Context, grade, subject string) ([]string, error)
	UpdateBucket(ctx context.Context, grade, subject string, fn repository.BucketUpdater) error
}

var (
	errKeywordExists   = errors.New("keyword already exists")
	errBucketPopulated = errors.New("bucket already populated")
)

// Export formats supported by the catalog dump.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// CatalogConfig tunes catalog behaviour.
type CatalogConfig struct {
	RequireTeacherApproval bool
}

// ExportFile is a rendered catalog document ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// CatalogService reads the keyword catalog and runs the approval workflow.
type CatalogService struct {
	store     catalogStore
	exporters map[string]export.Exporter
	logger    *zap.Logger
	cfg       CatalogConfig
	now       func() time.Time
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(store catalogStore, logger *zap.Logger, cfg CatalogConfig) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		store: store,
		exporters: map[string]export.Exporter{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Catalog returns the whole grade/subject/keyword tree.
func (s *CatalogService) Catalog(ctx context.Context) (models.Catalog, error) {
	catalog, err := s.store.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}
	return catalog, nil
}

// Keywords returns the bucket for a grade/subject pair. Unknown pairs yield an empty list.
func (s *CatalogService) Keywords(ctx context.Context, grade, subject string) ([]string, error) {
	keywords, err := s.store.Bucket(ctx, grade, subject)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load keywords")
	}
	if keywords == nil {
		keywords = []string{}
	}
	return keywords, nil
}

// IsValidKeyword reports whether keyword is in the bucket, ignoring case and surrounding space.
func (s *CatalogService) IsValidKeyword(ctx context.Context, grade, subject, keyword string) (bool, error) {
	keywords, err := s.Keywords(ctx, grade, subject)
	if err != nil {
		return false, err
	}
	needle := strings.TrimSpace(keyword)
	for _, candidate := range keywords {
		if strings.EqualFold(strings.TrimSpace(candidate), needle) {
			return true, nil
		}
	}
	return false, nil
}

// Approve appends a teacher approved keyword to a bucket, rejecting duplicates.
func (s *CatalogService) Approve(ctx context.Context, req models.ApprovalRequest, actor *models.SessionUser) (*models.ApprovalResult, error) {
	if s.cfg.RequireTeacherApproval && !actor.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can approve keywords")
	}

	grade := strings.TrimSpace(req.Grade)
	subject := strings.TrimSpace(req.Subject)
	prompt := strings.TrimSpace(req.Prompt)
	if grade == "" || subject == "" || prompt == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing fields")
	}

	candidate, _ := models.StripApprovalPrefix(prompt)
	if candidate == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing fields")
	}
	stored := models.ApprovalPrefix + candidate

	var bucket []string
	err := s.store.UpdateBucket(ctx, grade, subject, func(current []string) ([]string, error) {
		for _, existing := range current {
			if sameKeyword(existing, candidate) {
				return nil, errKeywordExists
			}
		}
		bucket = append(current, stored)
		return bucket, nil
	})
	if err != nil {
		if errors.Is(err, errKeywordExists) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "keyword already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update catalog")
	}

	s.logger.Info("keyword approved",
		zap.String("grade", grade),
		zap.String("subject", subject),
		zap.String("keyword", stored),
		zap.String("actor", actorName(actor)),
	)

	return &models.ApprovalResult{Grade: grade, Subject: subject, Keyword: stored, Keywords: bucket}, nil
}

// Export renders the catalog as one row per keyword.
func (s *CatalogService) Export(ctx context.Context, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   "Diagram Search Keyword Catalog",
		Headers: []string{"Grade", "Subject", "Keyword", "Teacher Approved"},
	}
	for _, grade := range catalog.Grades() {
		for _, subject := range catalog.Subjects(grade) {
			for _, keyword := range catalog.Bucket(grade, subject) {
				plain, approved := models.StripApprovalPrefix(keyword)
				dataset.Rows = append(dataset.Rows, []string{grade, subject, plain, fmt.Sprintf("%t", approved)})
			}
		}
	}

	payload, err := exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render catalog export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("catalog-%s.%s", s.now().UTC().Format("20060102-150405"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Payload:     payload,
	}, nil
}

// Seed copies buckets from seed into the store, leaving populated buckets untouched.
// It returns the number of buckets written.
func (s *CatalogService) Seed(ctx context.Context, seed models.Catalog) (int, error) {
	written := 0
	for _, grade := range seed.Grades() {
		for _, subject := range seed.Subjects(grade) {
			keywords := dedupeKeywords(seed.Bucket(grade, subject))
			if len(keywords) == 0 {
				continue
			}
			err := s.store.UpdateBucket(ctx, grade, subject, func(current []string) ([]string, error) {
				if len(current) > 0 {
					return nil, errBucketPopulated
				}
				return keywords, nil
			})
			switch {
			case err == nil:
				written++
			case errors.Is(err, errBucketPopulated):
			default:
				return written, fmt.Errorf("seed %s/%s: %w", grade, subject, err)
			}
		}
	}
	if written > 0 {
		s.logger.Info("catalog seeded", zap.Int("buckets", written))
	}
	return written, nil
}

// dedupeKeywords drops blank entries and later duplicates under the approval duplicate rule.
func dedupeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		plain, _ := models.StripApprovalPrefix(keyword)
		if plain == "" {
			continue
		}
		duplicate := false
		for _, kept := range out {
			if sameKeyword(kept, plain) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, keyword)
		}
	}
	return out
}

func sameKeyword(existing, candidate string) bool {
	plain, _ := models.StripApprovalPrefix(strings.TrimSpace(existing))
	return strings.EqualFold(plain, candidate)
}

func actorName(actor *models.SessionUser) string {
	if actor == nil {
		return "anonymous"
	}
	return actor.Username
}
