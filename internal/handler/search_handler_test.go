package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/diagram-search-api/internal/middleware"
	"github.com/noah-isme/diagram-search-api/internal/models"
	"github.com/noah-isme/diagram-search-api/internal/repository"
	"github.com/noah-isme/diagram-search-api/internal/service"
)

type countingImageClient struct {
	results []models.ImageResult
	err     error
	queries []string
}

func (c *countingImageClient) SearchImages(ctx context.Context, query string, limit int) ([]models.ImageResult, error) {
	c.queries = append(c.queries, query)
	return c.results, c.err
}

func newSearchRouter(t *testing.T, images *countingImageClient) (*gin.Engine, *http.Cookie, *http.Cookie) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewFileCatalogRepository(filepath.Join(t.TempDir(), "topics.json"))
	require.NoError(t, store.UpdateBucket(context.Background(), "5", "Science", func([]string) ([]string, error) {
		return []string{"Volcano"}, nil
	}))
	catalogSvc := service.NewCatalogService(store, zap.NewNop(), service.CatalogConfig{RequireTeacherApproval: true})
	searchSvc := service.NewSearchService(catalogSvc, images, nil, nil, zap.NewNop(), service.SearchConfig{})
	h := NewSearchHandler(searchSvc)

	sessions := newTestSessions()
	router := gin.New()
	router.Use(middleware.Authenticate(sessions, nil, nil))
	router.GET("/get_image", middleware.RequireAuth(), h.Exact)
	router.GET("/get_image_random", middleware.RequireAuth(), h.Random)
	router.GET("/get_image_custom", middleware.RequireRoles(models.RoleTeacher), h.Custom)

	login := func(user *models.SessionUser) *http.Cookie {
		rec := httptest.NewRecorder()
		require.NoError(t, sessions.Establish(rec, httptest.NewRequest(http.MethodGet, "/", nil), user))
		return rec.Result().Cookies()[0]
	}
	student := login(&models.SessionUser{UserID: "s1", Username: "kiddo", Role: models.RoleStudent})
	teacher := login(&models.SessionUser{UserID: "t1", Username: "mr-t", Role: models.RoleTeacher})
	return router, student, teacher
}

func serve(router *gin.Engine, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSearchVolcanoReachesProviderLavaDoesNot(t *testing.T) {
	images := &countingImageClient{results: []models.ImageResult{{Title: "Volcano diagram", Original: "https://img.test/volcano.png"}}}
	router, student, _ := newSearchRouter(t, images)

	ok := serve(router, "/get_image?grade=5&subject=Science&prompt=volcano", student)
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())
	assert.Equal(t, []string{"5 Science volcano diagram"}, images.queries)

	var result models.SearchResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ok).Data, &result))
	assert.Equal(t, "https://img.test/volcano.png", result.ImageURL)
	assert.Equal(t, models.RoleStudent, result.Role)

	bad := serve(router, "/get_image?grade=5&subject=Science&prompt=lava", student)
	require.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, bad).Error.Code)
	assert.Len(t, images.queries, 1)
}

func TestSearchRequiresSession(t *testing.T) {
	images := &countingImageClient{}
	router, _, _ := newSearchRouter(t, images)

	rec := serve(router, "/get_image?grade=5&subject=Science&prompt=volcano", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Empty(t, images.queries)
}

func TestSearchCustomIsTeacherOnly(t *testing.T) {
	images := &countingImageClient{results: []models.ImageResult{{Title: "Plates", Original: "https://img.test/plates.png"}}}
	router, student, teacher := newSearchRouter(t, images)

	denied := serve(router, "/get_image_custom?query=plate+tectonics", student)
	require.Equal(t, http.StatusForbidden, denied.Code)
	assert.Empty(t, images.queries)

	allowed := serve(router, "/get_image_custom?query=plate+tectonics", teacher)
	require.Equal(t, http.StatusOK, allowed.Code)
	assert.Equal(t, []string{"plate tectonics"}, images.queries)
}

func TestSearchProviderOutcomes(t *testing.T) {
	failing := &countingImageClient{err: errors.New("dial tcp: refused")}
	router, student, _ := newSearchRouter(t, failing)
	rec := serve(router, "/get_image?grade=5&subject=Science&prompt=Volcano", student)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "UPSTREAM_ERROR", decodeEnvelope(t, rec).Error.Code)

	empty := &countingImageClient{}
	router, student, _ = newSearchRouter(t, empty)
	rec = serve(router, "/get_image_random?grade=5&subject=Science&prompt=volcano", student)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No image found. Try a different valid keyword.", decodeEnvelope(t, rec).Error.Message)
}

func TestSearchReportsCacheHitInMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	images := &countingImageClient{results: []models.ImageResult{{Title: "Volcano diagram", Original: "https://img.test/volcano.png"}}}

	store := repository.NewFileCatalogRepository(filepath.Join(t.TempDir(), "topics.json"))
	require.NoError(t, store.UpdateBucket(context.Background(), "5", "Science", func([]string) ([]string, error) {
		return []string{"Volcano"}, nil
	}))
	catalogSvc := service.NewCatalogService(store, zap.NewNop(), service.CatalogConfig{})
	searchSvc := service.NewSearchService(catalogSvc, images, nil, nil, zap.NewNop(), service.SearchConfig{CacheTTL: time.Minute})
	h := NewSearchHandler(searchSvc)

	sessions := newTestSessions()
	router := gin.New()
	router.Use(middleware.WithResponseMeta(), middleware.Authenticate(sessions, nil, nil))
	router.GET("/get_image", middleware.RequireAuth(), h.Exact)

	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Establish(rec, httptest.NewRequest(http.MethodGet, "/", nil), &models.SessionUser{UserID: "s1", Username: "kiddo", Role: models.RoleStudent}))
	cookie := rec.Result().Cookies()[0]

	first := serve(router, "/get_image?grade=5&subject=Science&prompt=Volcano", cookie)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	firstMeta := decodeEnvelope(t, first).Meta
	assert.Equal(t, false, firstMeta["cache_hit"])
	assert.Contains(t, firstMeta, "processing_time_ms")

	second := serve(router, "/get_image?grade=5&subject=Science&prompt=Volcano", cookie)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, true, decodeEnvelope(t, second).Meta["cache_hit"])
	assert.Len(t, images.queries, 1)
}
