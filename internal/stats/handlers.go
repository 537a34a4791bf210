package stats

import (
	"time"

	"climblog/internal/session"

	"github.com/gofiber/fiber/v2"
)

var nowFn = time.Now

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/user-info.json", authMiddleware, func(c *fiber.Ctx) error {
		info, err := svc.UserInfo(c.Context(), session.FromCtx(c).UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(info)
	})

	r.Get("/user-chart.json", authMiddleware, func(c *fiber.Ctx) error {
		chart, err := svc.Chart(c.Context(), session.FromCtx(c).UserID, nowFn())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(chart)
	})
}
