package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagram-search-api/internal/middleware"
	"github.com/noah-isme/diagram-search-api/internal/models"
	"github.com/noah-isme/diagram-search-api/internal/service"
	appErrors "github.com/noah-isme/diagram-search-api/pkg/errors"
	"github.com/noah-isme/diagram-search-api/pkg/response"
)

type catalogService interface {
	Catalog(ctx context.Context) (models.Catalog, error)
	Keywords(ctx context.Context, grade, subject string) ([]string, error)
	Approve(ctx context.Context, req models.ApprovalRequest, actor *models.SessionUser) (*models.ApprovalResult, error)
	Export(ctx context.Context, format string) (*service.ExportFile, error)
}

// CatalogHandler exposes the keyword catalog and the approval workflow.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Index godoc
// @Summary Landing data
// @Description Current user and the full keyword catalog
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /index [get]
func (h *CatalogHandler) Index(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	catalog, err := h.service.Catalog(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, models.IndexResponse{
		User:    models.UserInfo{ID: user.UserID, Username: user.Username, Role: user.Role},
		Catalog: catalog,
	})
}

// Keywords godoc
// @Summary Keywords for a grade and subject
// @Tags Catalog
// @Produce json
// @Param grade query string true "Grade"
// @Param subject query string true "Subject"
// @Success 200 {object} response.Envelope
// @Router /get_keywords [get]
func (h *CatalogHandler) Keywords(c *gin.Context) {
	keywords, err := h.service.Keywords(c.Request.Context(), c.Query("grade"), c.Query("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.KeywordsResponse{Keywords: keywords})
}

// Approve godoc
// @Summary Approve a keyword
// @Description Append a teacher approved keyword to a grade/subject bucket
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.ApprovalRequest true "Approval payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approve_prompt [post]
func (h *CatalogHandler) Approve(c *gin.Context) {
	var req models.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing fields"))
		return
	}

	result, err := h.service.Approve(c.Request.Context(), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Export godoc
// @Summary Export the catalog
// @Tags Catalog
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /catalog/export [get]
func (h *CatalogHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
