package logbook

import (
	"errors"
	"strings"
	"time"

	"climblog/internal/session"
	"climblog/internal/shared/fname"
	"climblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type logForm struct {
	ReviewID string `form:"review_id"`
	RouteID  int    `form:"route_id"`
	Complete string `form:"complete"`
	Notes    string `form:"notes" validate:"max=4000"`
	Rating   int    `form:"rating" validate:"min=0,max=5"`
	Date     string `form:"date" validate:"omitempty,datetime=2006-01-02"`
	Photo    string `form:"photo"`
}

var nowFn = time.Now

func (f logForm) input() Input {
	date, err := time.Parse(DateLayout, f.Date)
	if err != nil {
		y, m, d := nowFn().UTC().Date()
		date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return Input{
		RouteID:   f.RouteID,
		Date:      date,
		Notes:     strings.TrimSpace(f.Notes),
		Rating:    f.Rating,
		Completed: parseComplete(f.Complete),
		Photo:     fname.Secure(f.Photo),
	}
}

// parseComplete reads a checkbox: absent means false, any value other than
// an explicit negative means true.
func parseComplete(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "false", "0", "off", "no":
		return false
	}
	return true
}

func parseForm(c *fiber.Ctx) (logForm, error) {
	var f logForm
	if err := c.BodyParser(&f); err != nil {
		return f, fiber.NewError(fiber.StatusBadRequest, "invalid form")
	}
	if err := validation.Struct(f); err != nil {
		return f, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return f, nil
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/log-climb.json", authMiddleware, func(c *fiber.Ctx) error {
		f, err := parseForm(c)
		if err != nil {
			return err
		}
		if f.RouteID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "route_id is required")
		}
		l, err := svc.Create(c.Context(), session.FromCtx(c).UserID, f.input())
		if errors.Is(err, ErrUnknownRoute) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(l)
	})

	r.Post("/update-log.json", authMiddleware, func(c *fiber.Ctx) error {
		f, err := parseForm(c)
		if err != nil {
			return err
		}
		if f.ReviewID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "review_id is required")
		}
		l, err := svc.Update(c.Context(), session.FromCtx(c).UserID, f.ReviewID, f.input())
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(l)
	})

	r.Post("/delete-log.json", authMiddleware, func(c *fiber.Ctx) error {
		id := c.FormValue("review_id")
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "review_id is required")
		}
		err := svc.Delete(c.Context(), session.FromCtx(c).UserID, id)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{})
	})
}
