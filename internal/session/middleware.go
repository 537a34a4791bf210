package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	CookieName = "climblog_session"
	localsKey  = "session"
)

// Load attaches the caller's Session to the request, issuing a cookie to
// first-time visitors. It never rejects a request.
func (s *Store) Load() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(CookieName)
		if token == "" {
			token = newTokenFn()
			s.setCookie(c, token)
		}
		sess, err := s.Get(c.Context(), token)
		if err != nil && !errors.Is(err, ErrUnavailable) {
			log.Warn().Err(err).Msg("session lookup failed")
		}
		Set(c, sess)
		return c.Next()
	}
}

// Login replaces the caller's session with a logged-in one under a new token.
func (s *Store) Login(c *fiber.Ctx, userID, username string) error {
	old := FromCtx(c)
	if old.Token != "" {
		if err := s.Destroy(c.Context(), old.Token); err != nil {
			return err
		}
	}
	token, err := s.Create(c.Context(), userID, username)
	if err != nil {
		return err
	}
	s.setCookie(c, token)
	Set(c, Session{Token: token, UserID: userID, Username: username})
	return nil
}

func (s *Store) Logout(c *fiber.Ctx) error {
	sess := FromCtx(c)
	if sess.Token == "" {
		return nil
	}
	if err := s.Destroy(c.Context(), sess.Token); err != nil {
		return err
	}
	Set(c, Session{Token: sess.Token})
	return nil
}

// Flash queues msg for the next rendered page. Failures are logged, not returned.
func (s *Store) Flash(c *fiber.Ctx, msg string) {
	sess := FromCtx(c)
	if sess.Token == "" {
		return
	}
	if err := s.AddFlash(c.Context(), sess.Token, msg); err != nil {
		log.Warn().Err(err).Str("flash", msg).Msg("could not store flash message")
	}
}

func (s *Store) Flashes(c *fiber.Ctx) []string {
	sess := FromCtx(c)
	if sess.Token == "" {
		return nil
	}
	msgs, err := s.PopFlashes(c.Context(), sess.Token)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			log.Warn().Err(err).Msg("could not read flash messages")
		}
		return nil
	}
	return msgs
}

// RequireLogin guards HTML pages: anonymous visitors are sent to the homepage.
func (s *Store) RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !FromCtx(c).LoggedIn() {
			s.Flash(c, "Please log in or register first")
			return c.Redirect("/")
		}
		return c.Next()
	}
}

// RequireLoginJSON guards AJAX endpoints.
func RequireLoginJSON() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !FromCtx(c).LoggedIn() {
			return fiber.NewError(fiber.StatusUnauthorized, "login required")
		}
		return c.Next()
	}
}

func FromCtx(c *fiber.Ctx) Session {
	sess, _ := c.Locals(localsKey).(Session)
	return sess
}

func Set(c *fiber.Ctx, sess Session) {
	c.Locals(localsKey, sess)
}

func (s *Store) setCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.ttl),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
