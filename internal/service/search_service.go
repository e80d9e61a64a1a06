package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/noah-isme/diagram-search-api/internal/clients"
	"github.com/noah-isme/diagram-search-api/internal/models"
	appErrors "github.com/noah-isme/diagram-search-api/pkg/errors"
)

const (
	invalidKeywordMessage = "Sorry, not possible. Please enter a valid keyword for the selected grade and subject."
	noImageMessage        = "No image found. Try a different valid keyword."
	captionUnavailable    = "Caption unavailable."
	defaultResultTitle    = "Result"

	imageProviderLabel   = "serpapi"
	captionProviderLabel = "gemini"
)

type keywordValidator interface {
	IsValidKeyword(ctx context.Context, grade, subject, keyword string) (bool, error)
}

type searchMetrics interface {
	ObserveProviderCall(provider, outcome string, duration time.Duration)
	RecordCacheOperation(hit bool)
}

type noopSearchMetrics struct{}

func (noopSearchMetrics) ObserveProviderCall(string, string, time.Duration) {}
func (noopSearchMetrics) RecordCacheOperation(bool)                         {}

// SearchConfig tunes the search gateway.
type SearchConfig struct {
	RandomCandidates int
	CacheTTL         time.Duration
}

// SearchService resolves catalog keywords and free text into diagram images.
type SearchService struct {
	catalog  keywordValidator
	images   clients.ImageSearchClient
	captions clients.CaptionClient
	metrics  searchMetrics
	cache    *gocache.Cache
	logger   *zap.Logger
	cfg      SearchConfig
	pick     func(n int) int
}

// NewSearchService constructs a SearchService. captions may be nil when caption generation is disabled.
func NewSearchService(catalog keywordValidator, images clients.ImageSearchClient, captions clients.CaptionClient, metrics searchMetrics, logger *zap.Logger, cfg SearchConfig) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopSearchMetrics{}
	}
	if cfg.RandomCandidates <= 0 {
		cfg.RandomCandidates = 10
	}
	svc := &SearchService{
		catalog:  catalog,
		images:   images,
		captions: captions,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		pick:     rand.IntN,
	}
	if cfg.CacheTTL > 0 {
		svc.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return svc
}

// Search runs a request in the requested mode on behalf of actor.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest, actor *models.SessionUser) (*models.SearchResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	switch req.Mode {
	case models.SearchModeCustom:
		return s.custom(ctx, req, actor)
	case models.SearchModeExact, models.SearchModeRandom, "":
		return s.catalogSearch(ctx, req, actor)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown search mode")
	}
}

func (s *SearchService) catalogSearch(ctx context.Context, req models.SearchRequest, actor *models.SessionUser) (*models.SearchResult, error) {
	mode := req.Mode
	if mode == "" {
		mode = models.SearchModeExact
	}
	grade := strings.TrimSpace(req.Grade)
	subject := strings.TrimSpace(req.Subject)
	prompt := strings.ToLower(strings.TrimSpace(req.Prompt))

	valid, err := s.catalog.IsValidKeyword(ctx, grade, subject, prompt)
	if err != nil {
		return nil, err
	}
	if prompt == "" || !valid {
		return nil, appErrors.Clone(appErrors.ErrValidation, invalidKeywordMessage)
	}

	query, approved := buildQuery(grade, subject, prompt)

	limit := 1
	if mode == models.SearchModeRandom {
		limit = s.cfg.RandomCandidates
	}
	images, cached, err := s.lookup(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	image := images[0]
	if mode == models.SearchModeRandom {
		image = images[s.pick(len(images))]
	}

	result := newSearchResult(image, query, mode, actor)
	result.TeacherApproved = approved
	result.CacheHit = cached
	if mode == models.SearchModeExact && s.captions != nil {
		topic, _ := models.StripApprovalPrefix(prompt)
		result.Caption = s.caption(ctx, grade, subject, topic)
	}
	return result, nil
}

func (s *SearchService) custom(ctx context.Context, req models.SearchRequest, actor *models.SessionUser) (*models.SearchResult, error) {
	if !actor.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "custom queries are limited to teachers")
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "query is required")
	}

	images, cached, err := s.lookup(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	result := newSearchResult(images[0], query, models.SearchModeCustom, actor)
	result.CacheHit = cached
	return result, nil
}

// lookup returns at least one image or a typed error, and whether the cache served it.
func (s *SearchService) lookup(ctx context.Context, query string, limit int) ([]models.ImageResult, bool, error) {
	key := fmt.Sprintf("%d|%s", limit, query)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheOperation(true)
			return cached.([]models.ImageResult), true, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	start := time.Now()
	images, err := s.images.SearchImages(ctx, query, limit)
	duration := time.Since(start)
	if err != nil {
		s.metrics.ObserveProviderCall(imageProviderLabel, OutcomeError, duration)
		s.logger.Warn("image search failed", zap.String("query", query), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "image search provider failed")
	}
	if len(images) == 0 {
		s.metrics.ObserveProviderCall(imageProviderLabel, OutcomeEmpty, duration)
		return nil, false, appErrors.Clone(appErrors.ErrNoResults, noImageMessage)
	}
	s.metrics.ObserveProviderCall(imageProviderLabel, OutcomeSuccess, duration)

	if s.cache != nil {
		s.cache.SetDefault(key, images)
	}
	return images, false, nil
}

func (s *SearchService) caption(ctx context.Context, grade, subject, topic string) string {
	prompt := fmt.Sprintf("Write one short sentence describing a school diagram of %s for grade %s %s students.", topic, grade, subject)

	start := time.Now()
	text, err := s.captions.GenerateCaption(ctx, prompt)
	duration := time.Since(start)
	if err != nil {
		s.metrics.ObserveProviderCall(captionProviderLabel, OutcomeError, duration)
		s.logger.Warn("caption generation failed", zap.String("topic", topic), zap.Error(err))
		return captionUnavailable
	}
	s.metrics.ObserveProviderCall(captionProviderLabel, OutcomeSuccess, duration)
	return text
}

// buildQuery turns a validated keyword into the provider query.
// Approved keywords search on their own text, without grade and subject.
func buildQuery(grade, subject, prompt string) (string, bool) {
	if stripped, ok := models.StripApprovalPrefix(prompt); ok {
		return stripped + " diagram", true
	}
	return fmt.Sprintf("%s %s %s diagram", grade, subject, prompt), false
}

func newSearchResult(image models.ImageResult, query string, mode models.SearchMode, actor *models.SessionUser) *models.SearchResult {
	title := strings.TrimSpace(image.Title)
	if title == "" {
		title = defaultResultTitle
	}
	return &models.SearchResult{
		Title:    title,
		ImageURL: image.Original,
		Query:    query,
		Mode:     mode,
		Role:     actor.Role,
	}
}
