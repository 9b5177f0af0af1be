package middleware

import (
	"errors"

	"albumportal/internal/logging"
	"albumportal/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie holds the signed session token.
const SessionCookie = "portal_session"

const usernameKey = "username"

// Paths the idle check never runs on.
var sessionExempt = map[string]bool{
	"/login":  true,
	"/logout": true,
}

// Session binds the session token to a cookie and enforces the idle timeout.
type Session struct {
	sessions *services.SessionService
	secure   bool
	log      logging.Logger
}

// NewSession creates a new Session middleware.
func NewSession(sessions *services.SessionService, secureCookie bool, log logging.Logger) *Session {
	return &Session{
		sessions: sessions,
		secure:   secureCookie,
		log:      log.With("component", "session"),
	}
}

// Load resumes the session named by the cookie and stores the username in
// the request locals. Idle sessions are ended and redirected to the login
// page; every other authenticated request refreshes the activity stamp.
func (s *Session) Load() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" || sessionExempt[c.Path()] {
			return c.Next()
		}

		username, err := s.sessions.Resume(token)
		switch {
		case errors.Is(err, services.ErrSessionExpired):
			s.End(c)
			Flash(c, Notice{Level: LevelInfo, Message: "You have been logged out due to inactivity."})
			return c.Redirect("/login")
		case err != nil:
			s.log.Warn(c.UserContext(), "discarding unusable session cookie", "ip", c.IP(), "error", err)
			s.End(c)
			return c.Next()
		}

		if err := s.Start(c, username); err != nil {
			return err
		}
		return c.Next()
	}
}

// Start issues a fresh session token for username.
func (s *Session) Start(c *fiber.Ctx, username string) error {
	token, err := s.sessions.Issue(username)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(usernameKey, username)
	return nil
}

// End forgets the session.
func (s *Session) End(c *fiber.Ctx) {
	expire(c, SessionCookie)
	c.Locals(usernameKey, nil)
}

// Username returns the logged-in username, or "" for anonymous requests.
func Username(c *fiber.Ctx) string {
	username, _ := c.Locals(usernameKey).(string)
	return username
}

// RequireLogin redirects anonymous requests to the login page.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Username(c) == "" {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}
