// Package session keeps the authenticated identity in a signed cookie.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/noah-isme/diagram-search-api/internal/models"
	"github.com/noah-isme/diagram-search-api/pkg/config"
)

const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyRole     = "role"
	keyLastSeen = "last_seen"
)

// ErrExpired is returned when a session outlived the idle timeout.
var ErrExpired = errors.New("session expired")

// Manager establishes, refreshes and destroys cookie sessions.
type Manager struct {
	store *sessions.CookieStore
	name  string
	idle  time.Duration
	now   func() time.Time
}

// NewManager builds a manager whose cookies are signed with cfg.Secret.
func NewManager(cfg config.SessionConfig) *Manager {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	name := cfg.CookieName
	if name == "" {
		name = "diagram_session"
	}

	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	// also bounds the signed timestamp so a replayed stale cookie is rejected
	store.MaxAge(int(idle.Seconds()))

	return &Manager{store: store, name: name, idle: idle, now: time.Now}
}

// IdleTimeout returns the configured inactivity window.
func (m *Manager) IdleTimeout() time.Duration {
	return m.idle
}

// Establish binds the user to a fresh session cookie.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, user *models.SessionUser) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[interface{}]interface{}{
		keyUserID:   user.UserID,
		keyUsername: user.Username,
		keyRole:     string(user.Role),
		keyLastSeen: m.now().Unix(),
	}
	sess.Options.MaxAge = int(m.idle.Seconds())
	return sess.Save(r, w)
}

// Current returns the identity stored in the request cookie, nil when there is none.
func (m *Manager) Current(r *http.Request) (*models.SessionUser, error) {
	sess, err := m.store.Get(r, m.name)
	if err != nil || sess.IsNew {
		return nil, nil
	}

	userID, _ := sess.Values[keyUserID].(string)
	if userID == "" {
		return nil, nil
	}
	lastSeen, _ := sess.Values[keyLastSeen].(int64)
	if m.now().Sub(time.Unix(lastSeen, 0)) > m.idle {
		return nil, ErrExpired
	}

	username, _ := sess.Values[keyUsername].(string)
	role, _ := sess.Values[keyRole].(string)
	return &models.SessionUser{UserID: userID, Username: username, Role: models.UserRole(role)}, nil
}

// Touch pushes the idle deadline forward for an existing session.
func (m *Manager) Touch(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, m.name)
	if err != nil || sess.IsNew {
		return nil
	}
	sess.Values[keyLastSeen] = m.now().Unix()
	sess.Options.MaxAge = int(m.idle.Seconds())
	return sess.Save(r, w)
}

// Destroy expires the session cookie. It never fails for a missing session.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
