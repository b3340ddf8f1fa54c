package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CookieName = "session"

	MinTTL     = 7 * 24 * time.Hour
	MaxTTL     = 14 * 24 * time.Hour
	DefaultTTL = MinTTL
)

// Manager reads and writes the session cookie. The lifetime is fixed when
// the cookie is written; reads never extend it.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
}

func NewManager(store Store, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:  store,
		ttl:    ClampTTL(ttl),
		secure: secure,
	}
}

// ClampTTL keeps a configured lifetime within 7 to 14 days.
func ClampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl <= 0:
		return DefaultTTL
	case ttl < MinTTL:
		return MinTTL
	case ttl > MaxTTL:
		return MaxTTL
	}
	return ttl
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// ReadValue returns the raw cookie value, if any.
func (m *Manager) ReadValue(c *gin.Context) (string, bool) {
	value, err := c.Cookie(CookieName)
	if err != nil || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// Principal decodes the cookie. No cookie yields nil, nil.
func (m *Manager) Principal(c *gin.Context) (*Principal, error) {
	value, ok := m.ReadValue(c)
	if !ok {
		return nil, nil
	}
	return m.store.Decode(c.Request.Context(), value)
}

func (m *Manager) Write(c *gin.Context, p Principal) error {
	value, err := m.store.Encode(c.Request.Context(), p)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, value, int(m.ttl.Seconds()), "/", "", m.secure, true)
	return nil
}

// Clear drops the cookie and revokes its value where the store supports it.
func (m *Manager) Clear(c *gin.Context) error {
	var revokeErr error
	if value, ok := m.ReadValue(c); ok {
		revokeErr = m.store.Revoke(c.Request.Context(), value)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", m.secure, true)
	return revokeErr
}
