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

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

type sessionManager interface {
	Establish(w http.ResponseWriter, r *http.Request, user *models.SessionUser) error
	Destroy(w http.ResponseWriter, r *http.Request) error
}

// AuthHandler wires HTTP endpoints to the auth service and the session cookie.
type AuthHandler struct {
	service  authService
	sessions sessionManager
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, sessions sessionManager) *AuthHandler {
	return &AuthHandler{service: svc, sessions: sessions}
}

// Root sends signed-in users to the index and everyone else to the login page.
func (h *AuthHandler) Root(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/index")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// LoginForm describes the login payload for clients that follow the root redirect.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"message": "POST username and password to /login",
		"fields":  []string{"username", "password"},
	})
}

// Register godoc
// @Summary Register a user
// @Description Create a student or teacher account using the per-role secret code
// @Tags Authentication
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username and password, set the session cookie and return a bearer token
// @Tags Authentication
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	identity := &models.SessionUser{UserID: res.User.ID, Username: res.User.Username, Role: res.User.Role}
	if err := h.sessions.Establish(c.Writer, c.Request, identity); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start session"))
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Logout current session
// @Description Clear the session cookie. Always succeeds.
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	_ = h.sessions.Destroy(c.Writer, c.Request)
	response.JSON(c, http.StatusOK, gin.H{"message": "logged out"})
}
