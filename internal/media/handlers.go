package media

import (
	"errors"

	"climblog/internal/logbook"
	"climblog/internal/metrics"
	"climblog/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Flasher queues a message for the user's next page view.
type Flasher interface {
	Flash(c *fiber.Ctx, msg string)
}

func RegisterRoutes(r fiber.Router, svc *Service, flash Flasher, authMiddleware fiber.Handler) {
	r.Post("/upload.json", authMiddleware, func(c *fiber.Ctx) error {
		var name string
		fh, err := c.FormFile("file")
		if err == nil {
			name = fh.Filename
		}

		stored, err := svc.Accept(name)
		switch {
		case errors.Is(err, ErrNoFile):
			metrics.RecordUpload("no_file")
			flash.Flash(c, "No selected file")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ErrInvalidType):
			metrics.RecordUpload("invalid_type")
			flash.Flash(c, "Please upload a valid file type")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		// Attach first so a missing or foreign log leaves nothing on disk.
		userID := session.FromCtx(c).UserID
		if reviewID := c.FormValue("review_id"); reviewID != "" {
			err := svc.Attach(c.Context(), userID, reviewID, stored)
			if errors.Is(err, logbook.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}

		dst, err := svc.Destination(stored)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if err := c.SaveFile(fh, dst); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		metrics.RecordUpload("stored")
		log.Info().Str("user_id", userID).Str("filename", stored).Int64("size", fh.Size).Msg("photo uploaded")
		return c.JSON(fiber.Map{"filename": stored})
	})

	r.Get("/uploads/:filename", func(c *fiber.Ctx) error {
		p, err := svc.Lookup(c.Params("filename"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendFile(p)
	})
}
