package server

import (
	"errors"
	"strings"

	"climblog/internal/auth"
	"climblog/internal/catalog"
	"climblog/internal/config"
	"climblog/internal/db"
	"climblog/internal/logbook"
	"climblog/internal/media"
	"climblog/internal/metrics"
	"climblog/internal/session"
	"climblog/internal/stats"
	"climblog/internal/stream"
	"climblog/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Sessions *session.Store
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client) *Server {
	bodyLimit := cfg.MaxUploadMB << 20
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}
	app := fiber.New(fiber.Config{
		Views:        web.NewEngine(),
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(metrics.Middleware())

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       pool,
		Redis:    redisClient,
		Stream:   stream.NewHub(redisClient),
		Sessions: session.NewStore(redisClient, cfg.SessionTTL, cfg.CookieSecure),
	}

	registerRoutes(s)
	return s
}

// querier keeps a nil pool from turning into a non-nil interface.
func (s *Server) querier() db.Querier {
	if s.DB == nil {
		return nil
	}
	return s.DB
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", metrics.Handler())

	s.App.Use(s.Sessions.Load())
	requireJSON := session.RequireLoginJSON()
	q := s.querier()

	logs := logbook.NewService(q, s.Stream)

	auth.RegisterRoutes(s.App, auth.NewService(q), s.Sessions)
	catalog.RegisterRoutes(s.App, catalog.NewService(q, s.Redis))
	logbook.RegisterRoutes(s.App, logs, requireJSON)
	stats.RegisterRoutes(s.App, stats.NewService(q, logs), requireJSON)
	media.RegisterRoutes(s.App, media.NewService(s.Cfg.UploadDir, logs), s.Sessions, requireJSON)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, requireJSON)
	web.RegisterRoutes(s.App, s.Sessions)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", code).Msg("request failed")
	}

	if wantsJSON(c) {
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(err.Error())
}

func wantsJSON(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasSuffix(p, ".json") || strings.HasPrefix(p, "/stream") ||
		strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
