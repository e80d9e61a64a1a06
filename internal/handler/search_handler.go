package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagram-search-api/internal/middleware"
	"github.com/noah-isme/diagram-search-api/internal/models"
	appErrors "github.com/noah-isme/diagram-search-api/pkg/errors"
	"github.com/noah-isme/diagram-search-api/pkg/response"
)

type searchService interface {
	Search(ctx context.Context, req models.SearchRequest, actor *models.SessionUser) (*models.SearchResult, error)
}

// SearchHandler serves the diagram image endpoints.
type SearchHandler struct {
	service searchService
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(svc searchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// Exact godoc
// @Summary Diagram for a catalog keyword
// @Tags Search
// @Produce json
// @Param grade query string true "Grade"
// @Param subject query string true "Subject"
// @Param prompt query string true "Catalog keyword"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /get_image [get]
func (h *SearchHandler) Exact(c *gin.Context) {
	h.search(c, models.SearchModeExact)
}

// Random godoc
// @Summary Random diagram among the top results for a catalog keyword
// @Tags Search
// @Produce json
// @Param grade query string true "Grade"
// @Param subject query string true "Subject"
// @Param prompt query string true "Catalog keyword"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /get_image_random [get]
func (h *SearchHandler) Random(c *gin.Context) {
	h.search(c, models.SearchModeRandom)
}

// Custom godoc
// @Summary Diagram for a free text teacher query
// @Tags Search
// @Produce json
// @Param query query string true "Free text query"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /get_image_custom [get]
func (h *SearchHandler) Custom(c *gin.Context) {
	h.search(c, models.SearchModeCustom)
}

func (h *SearchHandler) search(c *gin.Context, mode models.SearchMode) {
	var req models.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search parameters"))
		return
	}
	req.Mode = mode

	result, err := h.service.Search(c.Request.Context(), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.CacheHit)
	response.JSON(c, http.StatusOK, result, middleware.ResponseMeta(c))
}
