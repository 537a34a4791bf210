package catalog

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const defaultNearbyRadiusKm = 25

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/search.json", func(c *fiber.Ctx) error {
		res, err := svc.Search(c.Context(), c.Query("state"), c.Query("area"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(res)
	})

	r.Get("/routes/nearby.json", func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		radius, _ := strconv.ParseFloat(c.Query("radius_km"), 64)
		if radius <= 0 {
			radius = defaultNearbyRadiusKm
		}
		routes, err := svc.Nearby(c.Context(), lat, lng, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(routes)
	})

	r.Get("/routes/:id.json", func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid route id")
		}
		route, err := svc.GetRoute(c.Context(), id)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(route)
	})
}
