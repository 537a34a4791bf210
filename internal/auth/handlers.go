package auth

import (
	"errors"

	"climblog/internal/session"
	"climblog/internal/validation"
	"climblog/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func RegisterRoutes(r fiber.Router, svc *Service, sessions *session.Store) {
	r.Get("/", func(c *fiber.Ctx) error {
		if session.FromCtx(c).LoggedIn() {
			return c.Redirect("/dashboard")
		}
		return web.Render(c, sessions, "homepage", nil)
	})

	r.Get("/register", func(c *fiber.Ctx) error {
		return web.Render(c, sessions, "register", fiber.Map{"Title": "Register"})
	})

	r.Post("/register-user", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid form")
		}
		if err := validation.Struct(req); err != nil {
			sessions.Flash(c, err.Error())
			return c.Redirect("/register")
		}

		user, err := svc.Register(c.Context(), req)
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrPasswordTooLong):
			sessions.Flash(c, err.Error())
			return c.Redirect("/register")
		case errors.Is(err, ErrAlreadyRegistered):
			sessions.Flash(c, "You've already registered.  Please login!")
			return c.Redirect("/")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
		sessions.Flash(c, "Successfully registered! Please log in!")
		return c.Redirect("/")
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid form")
		}
		if err := validation.Struct(req); err != nil {
			sessions.Flash(c, err.Error())
			return c.Redirect("/")
		}

		user, err := svc.Login(c.Context(), req)
		switch {
		case errors.Is(err, ErrNotRegistered):
			sessions.Flash(c, "Please register first!")
			return c.Redirect("/")
		case errors.Is(err, ErrInvalidPassword):
			sessions.Flash(c, "Invalid password. Please try again!")
			return c.Redirect("/")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		if err := sessions.Login(c, user.ID, user.Username); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "could not start session")
		}
		sessions.Flash(c, "Logged in!")
		return c.Redirect("/dashboard")
	})

	r.Post("/logout", func(c *fiber.Ctx) error {
		if err := sessions.Logout(c); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "could not end session")
		}
		sessions.Flash(c, "logged out successfully")
		return c.Redirect("/")
	})
}
