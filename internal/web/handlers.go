package web

import (
	"climblog/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

func RegisterRoutes(r fiber.Router, sessions *session.Store) {
	requireLogin := sessions.RequireLogin()

	r.Use("/static", filesystem.New(filesystem.Config{
		Root:   StaticFS(),
		MaxAge: 3600,
	}))

	r.Get("/dashboard", requireLogin, func(c *fiber.Ctx) error {
		return Render(c, sessions, "dashboard", fiber.Map{"Title": "Dashboard"})
	})

	r.Get("/user-map", requireLogin, func(c *fiber.Ctx) error {
		return Render(c, sessions, "user_map", fiber.Map{"Title": "Map"})
	})
}
