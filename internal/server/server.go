// Package server exposes the services over an HTTP JSON API.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rupl/internal/bootstrap"
	"rupl/internal/config"
	"rupl/internal/middleware"
	"rupl/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// fiberprometheus registers its collectors globally, so every Server shares
// one instance.
func promMiddleware() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New("rupl-api")
	})
	return prom
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	app            *bootstrap.App
	redis          *redis.Client
	tokens         *middleware.Tokens
	promMiddleware *fiberprometheus.FiberPrometheus
}

// NewServer creates a server over an assembled application.
func NewServer(app *bootstrap.App) *Server {
	return &Server{
		config:         app.Config,
		app:            app,
		redis:          app.Redis,
		tokens:         middleware.NewTokens(app.Config.JWTSecret, middleware.DefaultTokenTTL),
		promMiddleware: promMiddleware(),
	}
}

// Tokens returns the token authority used by the auth routes.
func (s *Server) Tokens() *middleware.Tokens {
	return s.tokens
}

// NewApp returns a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Rupl API",
		BodyLimit: (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	auth := middleware.AuthRequired(s.tokens)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", s.rateLimit(5, 10*time.Minute, "register"), s.Register)
	authRoutes.Post("/login", s.rateLimit(10, 5*time.Minute, "login"), s.Login)
	authRoutes.Post("/logout", auth, s.Logout)

	feeds := api.Group("/feeds")
	feeds.Get("/public", s.PublicFeed)
	feeds.Get("/explore", s.ExploreFeed)
	feeds.Get("/home", auth, s.HomeFeed)
	feeds.Get("/saved", auth, s.SavedFeed)

	users := api.Group("/users", auth)
	users.Get("/me", s.GetMe)
	users.Put("/me", s.UpdateMe)
	users.Get("/", s.SearchUsers)
	users.Get("/share-targets", s.ShareTargets)
	users.Get("/stories", s.Stories)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id", s.GetProfile)

	posts := api.Group("/posts")
	posts.Post("/", auth, s.rateLimit(10, time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", auth, s.rateLimit(30, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:id/like", auth, s.ToggleLike)
	posts.Post("/:id/save", auth, s.ToggleSave)
	posts.Post("/:id/share", auth, s.SharePost)
	posts.Get("/:id", s.GetPost)

	api.Post("/captions/suggest", auth, s.rateLimit(10, time.Minute, "caption"), s.SuggestCaption)
	api.Get("/feature-flags", auth, s.GetFeatureFlags)
}

// rateLimit applies a Redis backed per-route limit when Redis is the
// storage backend. Otherwise only the global limiter applies.
func (s *Server) rateLimit(limit int, window time.Duration, name string) fiber.Handler {
	if s.redis == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return middleware.RateLimit(s.redis, limit, window, name)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the storage backend answers.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storageStatus := "healthy"
	if err := s.app.Ready(ctx); err != nil {
		storageStatus = "unhealthy"
		observability.Logger.WarnContext(ctx, "readiness check failed", slog.String("error", err.Error()))
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storageStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"storage": storageStatus,
			"backend": s.app.Storage.Backend(),
			"unsaved": s.app.Checkpointer.Dirty(),
		},
		"time": time.Now(),
	})
}
