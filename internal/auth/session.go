package auth

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie carries the dashboard session token.
const SessionCookie = "portal_session"

// Sessions tracks logged-in operator sessions. State is held in-process on
// purpose: a restart returns every session to logged-out. Sessions do not
// expire and failed logins are not rate limited; a wrong secret simply
// re-prompts.
type Sessions struct {
	secret string

	mu     sync.Mutex
	active map[string]time.Time
}

// NewSessions builds a session registry gated on the shared admin secret.
func NewSessions(secret string) *Sessions {
	return &Sessions{
		secret: secret,
		active: map[string]time.Time{},
	}
}

// Login checks the shared secret and, on success, opens a session and
// returns its token.
func (s *Sessions) Login(password string) (string, bool) {
	if password != s.secret {
		return "", false
	}
	token := uuid.NewString()
	s.mu.Lock()
	s.active[token] = time.Now()
	s.mu.Unlock()
	return token, true
}

// LoggedIn reports whether the token belongs to an open session.
func (s *Sessions) LoggedIn(token string) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[token]
	return ok
}

// Logout closes the session. Unknown tokens are a no-op.
func (s *Sessions) Logout(token string) {
	s.mu.Lock()
	delete(s.active, token)
	s.mu.Unlock()
}

// RequireLogin redirects requests without an open session to the login page.
func RequireLogin(sessions *Sessions, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || !sessions.LoggedIn(token) {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Token returns the request's session token, if any.
func Token(c *gin.Context) string {
	token, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return token
}
