package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/diagram-search-api/internal/models"
	"github.com/noah-isme/diagram-search-api/internal/session"
)

// ContextUserKey is the gin context key storing the authenticated *models.SessionUser.
const ContextUserKey = "currentUser"

type sessionStore interface {
	Current(r *http.Request) (*models.SessionUser, error)
	Touch(w http.ResponseWriter, r *http.Request) error
	Destroy(w http.ResponseWriter, r *http.Request) error
}

type tokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.SessionUser, error)
}

// Authenticate attaches the caller identity when one is present but never blocks.
// The session cookie wins over a bearer token; a live session has its idle timer refreshed.
func Authenticate(sessions sessionStore, tokens tokenResolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if user := sessionUser(c, sessions, logger); user != nil {
			c.Set(ContextUserKey, user)
			c.Next()
			return
		}

		if user := bearerUser(c, tokens, logger); user != nil {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the identity attached by Authenticate, or nil.
func CurrentUser(c *gin.Context) *models.SessionUser {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.SessionUser)
	if !ok {
		return nil
	}
	return user
}

func sessionUser(c *gin.Context, sessions sessionStore, logger *zap.Logger) *models.SessionUser {
	if sessions == nil {
		return nil
	}
	user, err := sessions.Current(c.Request)
	if err != nil {
		if errors.Is(err, session.ErrExpired) {
			_ = sessions.Destroy(c.Writer, c.Request)
		}
		return nil
	}
	if user == nil {
		return nil
	}
	if err := sessions.Touch(c.Writer, c.Request); err != nil {
		logger.Warn("failed to refresh session", zap.String("user_id", user.UserID), zap.Error(err))
	}
	return user
}

func bearerUser(c *gin.Context, tokens tokenResolver, logger *zap.Logger) *models.SessionUser {
	if tokens == nil {
		return nil
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil
	}
	user, err := tokens.ResolveToken(c.Request.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		logger.Debug("bearer token rejected", zap.Error(err))
		return nil
	}
	return user
}
